package util

import (
	"encoding/json"
	"fmt"
	"os"
)

// ParseVcapServices parses raw JSON VCAP_SERVICES into a useable object
func ParseVcapServices(data []byte) (*VcapServices, error) {
	services := VcapServices{}
	err := json.Unmarshal(data, &services)
	return &services, err
}

// GetVcapCredentials finds the credentials of the named service in the VCAP_SERVICES environment variable
func GetVcapCredentials(serviceName string) (VcapCredentials, error) {
	raw, ok := os.LookupEnv(VCAP_SERVICES)
	if !ok || raw == "" {
		return nil, fmt.Errorf("%s is not set", VCAP_SERVICES)
	}
	services, err := ParseVcapServices([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", VCAP_SERVICES, err)
	}
	service := services.FindServiceByName(serviceName)
	if service == nil {
		return nil, fmt.Errorf("no service named %s in %s", serviceName, VCAP_SERVICES)
	}
	return service.Credentials, nil
}

// VcapServices is a parsed VCAP_SERVICES JSON configuration
type VcapServices map[string][]VcapService

// FindServiceByName finds a service within VCAP_SERVICES, wherever it is nestled
func (s VcapServices) FindServiceByName(name string) *VcapService {
	for _, serviceArray := range s {
		for i := range serviceArray {
			if serviceArray[i].Name == name {
				return &serviceArray[i]
			}
		}
	}
	return nil
}

// VcapService is a parsed individual VCAP service; only the name and credentials are kept
type VcapService struct {
	Name        string          `json:"name"`
	Credentials VcapCredentials `json:"credentials"`
}

// VcapCredentials is a parsed map of VCAP credentials for a service
type VcapCredentials map[string]interface{}

// String recovers the value at the given key, assuming it is a string
func (c VcapCredentials) String(key string) (string, error) {
	if val, ok := c[key]; !ok {
		return "", fmt.Errorf("Credential key does not exist: %s", key)
	} else if valStr, ok := val.(string); ok {
		return valStr, nil
	} else {
		return "", fmt.Errorf("Could not convert value to string: key=%s, value=%v", key, val)
	}
}

// Int recovers the value at the given key. JSON numbers arrive as float64
// and are accepted when they hold a whole number.
func (c VcapCredentials) Int(key string) (int, error) {
	val, ok := c[key]
	if !ok {
		return 0, fmt.Errorf("Credential key does not exist: %s", key)
	}
	switch v := val.(type) {
	case int:
		return v, nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("Could not convert value to int: key=%s, value=%v", key, val)
}
