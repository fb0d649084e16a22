// Copyright 2016, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	COPERNICUS_URL           = "COPERNICUS_URL"
	COPERNICUS_USERNAME      = "COPERNICUS_USERNAME"
	COPERNICUS_PASSWORD      = "COPERNICUS_PASSWORD"
	EODMS_URL                = "EODMS_URL"
	EODMS_USERNAME           = "EODMS_USERNAME"
	EODMS_PASSWORD           = "EODMS_PASSWORD"
	SUMMARY_MAX_OUTPUT_BYTES = "SUMMARY_MAX_OUTPUT_BYTES"
	SUMMARY_OUTPUT_DIR       = "SUMMARY_OUTPUT_DIR"
	LOG_MODE                 = "LOG_MODE"
	VCAP_SERVICES            = "VCAP_SERVICES"
)

// Service names looked up in VCAP_SERVICES when credentials are not in the environment
const (
	CopernicusServiceName = "copernicus"
	EODMSServiceName      = "eodms"
)

const (
	defaultCopernicusURL = "https://apihub.copernicus.eu/apihub/"
	defaultEODMSURL      = "https://www.eodms-sgdot.nrcan-rncan.gc.ca/wes/rapi/"

	// DefaultMaxOutputBytes is the upload ceiling of the web-map platform
	DefaultMaxOutputBytes int64 = 10 * 1024 * 1024
)

// LoadDotEnv loads KEY=value pairs from the given files into the environment.
// Variables already set are left alone and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		LogInfo(&BasicLogContext{}, "Loaded environment from "+path)
	}
	return nil
}

// GetCopernicusURL returns a string for the COPERNICUS_URL environment variable
func GetCopernicusURL() string {
	copernicusURL, ok := os.LookupEnv(COPERNICUS_URL)
	if !ok {
		LogInfo(&BasicLogContext{}, "Did not get Copernicus URL from the environment. Using default: "+defaultCopernicusURL)
		copernicusURL = defaultCopernicusURL
	}
	return copernicusURL
}

// GetEODMSURL returns a string for the EODMS_URL environment variable
func GetEODMSURL() string {
	eodmsURL, ok := os.LookupEnv(EODMS_URL)
	if !ok {
		LogInfo(&BasicLogContext{}, "Did not get EODMS URL from the environment. Using default: "+defaultEODMSURL)
		eodmsURL = defaultEODMSURL
	}
	return eodmsURL
}

// GetCopernicusCredentials returns the Copernicus user name and password
func GetCopernicusCredentials() (string, string) {
	return getCredentials(COPERNICUS_USERNAME, COPERNICUS_PASSWORD, CopernicusServiceName)
}

// GetEODMSCredentials returns the EODMS user name and password
func GetEODMSCredentials() (string, string) {
	return getCredentials(EODMS_USERNAME, EODMS_PASSWORD, EODMSServiceName)
}

func getCredentials(userVar, passwordVar, serviceName string) (string, string) {
	username, userOK := os.LookupEnv(userVar)
	password, passOK := os.LookupEnv(passwordVar)
	if userOK && passOK {
		return username, password
	}
	if creds, err := GetVcapCredentials(serviceName); err == nil {
		vcapUser, userErr := creds.String("username")
		vcapPassword, passErr := creds.String("password")
		if userErr == nil && passErr == nil {
			return vcapUser, vcapPassword
		}
	}
	LogAlert(&BasicLogContext{}, fmt.Sprintf("Did not get %s credentials from the environment. Requests will be anonymous.", serviceName))
	return username, password
}

// GetMaxOutputBytes returns the artifact size ceiling from SUMMARY_MAX_OUTPUT_BYTES,
// or the default when it is unset or invalid
func GetMaxOutputBytes() int64 {
	raw, ok := os.LookupEnv(SUMMARY_MAX_OUTPUT_BYTES)
	if !ok {
		return DefaultMaxOutputBytes
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		LogAlert(&BasicLogContext{}, fmt.Sprintf("Invalid %s value %q. Using default of %d bytes.", SUMMARY_MAX_OUTPUT_BYTES, raw, DefaultMaxOutputBytes))
		return DefaultMaxOutputBytes
	}
	return value
}

// GetOutputDir returns the directory served by the serve command
func GetOutputDir() string {
	dir, ok := os.LookupEnv(SUMMARY_OUTPUT_DIR)
	if !ok {
		return "."
	}
	return dir
}
