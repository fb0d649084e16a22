package schema

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/venicegeo/bf-metadata-summary/model"
)

// Canonical mission names
const (
	MissionLandsat    = "LANDSAT"
	MissionSentinel1  = "Sentinel-1"
	MissionSentinel2  = "Sentinel-2"
	MissionSentinel3  = "Sentinel-3"
	MissionRadarsat1  = "RADARSAT-1"
	MissionRadarsat2  = "RADARSAT-2"
	MissionRadarsatCM = "RADARSAT-CM"
)

// Layouts of the USGS bulk metadata files
const (
	LandsatStartTimeLayout    = model.LandsatDayOfYearLayout
	LandsatDateAcquiredLayout = model.SlashDateLayout
)

var (
	landsatSatellites    = map[string]string{"8": "LANDSAT-8", "9": "LANDSAT-9"}
	sentinel1Platforms   = map[string]string{"2014-016A": "Sentinel-1A", "2016-025A": "Sentinel-1B"}
	sentinel3Platforms   = map[string]string{"2016-011A": "Sentinel-3A", "2018-039A": "Sentinel-3B", "0000-000A": "Sentinel-3B"}
	sentinel3Levels      = map[string]string{"L1": "Level 1", "L2": "Level 2"}
	radarsat1Collections = map[string]string{"Radarsat1": MissionRadarsat1}
	radarsat2Collections = map[string]string{"Radarsat2RawProducts": MissionRadarsat2}
	rcmCollections       = map[string]string{"RCMImageProducts": MissionRadarsatCM}
	eodmsLevels          = map[string]string{"l1": "Level 1", "l3": "Level 3"}
	rcmSatellites        = map[string]string{"RCM-1": "RADARSAT-CM 1", "RCM-2": "RADARSAT-CM 2", "RCM-3": "RADARSAT-CM 3"}

	// EODMS reports start dates with a numeric offset, e.g. "2021-05-01T12:34:56 +0000"
	eodmsStartLayouts = []string{model.ISOSpaceOffsetLayout, model.SpaceOffsetLayout, time.RFC3339Nano}
)

func rename(src, canonical string) FieldRule {
	return FieldRule{Source: []string{src}, Canonical: canonical}
}

func coalesce(canonical string, srcs ...string) FieldRule {
	return FieldRule{Source: srcs, Canonical: canonical}
}

func translate(src, canonical string, table map[string]string) FieldRule {
	return FieldRule{Source: []string{src}, Canonical: canonical, Translate: table}
}

func timestamp(canonical string, layouts []string, srcs ...string) FieldRule {
	return FieldRule{Source: srcs, Canonical: canonical, Kind: Timestamp, TimeLayouts: layouts}
}

type definition struct {
	rules     []FieldRule
	constants map[string]interface{}
}

func landsatCSV(level string, dataType []string) definition {
	return definition{
		rules: []FieldRule{
			coalesce(model.FieldFilename, "Landsat Product Identifier L2", "Landsat Product Identifier L1"),
			rename("Landsat Scene Identifier", "sceneid"),
			rename("Collection Category", "collection"),
			rename("WRS Path", "wrs_path"),
			rename("WRS Row", "wrs_row"),
			rename("Scene Cloud Cover L1", model.FieldCloudCover),
			timestamp(model.FieldStartTime, []string{LandsatStartTimeLayout}, "Start Time"),
			timestamp("endtime", []string{LandsatStartTimeLayout}, "Stop Time"),
			rename("Day/Night Indicator", "day_night"),
			rename("Sun Elevation L0RA", "sun_elev"),
			rename("Sun Azimuth L0RA", "sun_azim"),
			coalesce(model.FieldDataType, dataType...),
			rename("Sensor Identifier", "sensorid"),
			translate("Satellite", model.FieldPlatform, landsatSatellites),
			rename("UTM Zone", "utm_zone"),
			rename("Ellipsoid", "ellipsoid"),
		},
		constants: map[string]interface{}{model.FieldMission: MissionLandsat, model.FieldProcLevel: level},
	}
}

// copernicusCommon holds the OpenSearch attributes shared by all Sentinel missions
func copernicusCommon(extra ...FieldRule) []FieldRule {
	return append([]FieldRule{
		timestamp(model.FieldStartTime, nil, "beginposition"),
		timestamp("endtime", nil, "endposition"),
		timestamp("ingestion", nil, "ingestiondate"),
		rename("orbitnumber", model.FieldOrbitAbs),
		rename("relativeorbitnumber", model.FieldOrbitRel),
		rename("orbitdirection", model.FieldOrbitDir),
		rename("platformname", model.FieldMission),
		rename("producttype", model.FieldDataType),
		rename("filename", model.FieldFilename),
		rename("link", model.FieldLink),
		rename("uuid", "uuid"),
	}, extra...)
}

// copernicusShapefileCommon is copernicusCommon under the names an
// intermediate shapefile truncates them to
func copernicusShapefileCommon(extra ...FieldRule) []FieldRule {
	return append([]FieldRule{
		timestamp(model.FieldStartTime, nil, "beginposit"),
		timestamp("endtime", nil, "endpositio"),
		timestamp("ingestion", nil, "ingestiond"),
		rename("orbitnumbe", model.FieldOrbitAbs),
		rename("relativeor", model.FieldOrbitRel),
		rename("orbitdirec", model.FieldOrbitDir),
		rename("platformna", model.FieldMission),
		rename("producttyp", model.FieldDataType),
		rename("filename", model.FieldFilename),
		rename("link", model.FieldLink),
		rename("uuid", "uuid"),
	}, extra...)
}

func eodmsCommon(collections map[string]string, extra ...FieldRule) []FieldRule {
	return append([]FieldRule{
		rename("recordId", "recordId"),
		translate("collectionId", model.FieldMission, collections),
		rename("incidenceAngle", "angle_inc"),
		rename("orbitDirection", model.FieldOrbitDir),
		rename("absoluteOrbit", model.FieldOrbitAbs),
		rename("polarization", "polarisati"),
		rename("spatialResolution", "spatialRes"),
		rename("sensorMode", "sensormode"),
		rename("lookOrientation", "lookOrient"),
		rename("title", model.FieldFilename),
		rename("featureId", "featureId"),
		rename("thisRecordUrl", "thisRecord"),
		rename("downloadLink", model.FieldLink),
	}, extra...)
}

func eodmsShapefileCommon(collections map[string]string, extra ...FieldRule) []FieldRule {
	return append([]FieldRule{
		rename("recordId", "recordId"),
		translate("collection", model.FieldMission, collections),
		rename("incidenceA", "angle_inc"),
		rename("orbitDirec", model.FieldOrbitDir),
		rename("absoluteOr", model.FieldOrbitAbs),
		rename("polarizati", "polarisati"),
		rename("spatialRes", "spatialRes"),
		rename("sensorMode", "sensormode"),
		rename("lookOrient", "lookOrient"),
		rename("title", model.FieldFilename),
		rename("featureId", "featureId"),
		rename("thisRecord", "thisRecord"),
		rename("downloadLi", model.FieldLink),
		timestamp(model.FieldStartTime, nil, "starttime"),
	}, extra...)
}

var definitions = map[string]definition{
	"landsat-l1": landsatCSV("Level 1", []string{"Data Type L1"}),
	"landsat-l2": landsatCSV("Level 2", []string{"Data Type L2", "Data Type L1"}),
	"landsat-shp": {
		rules: []FieldRule{
			coalesce(model.FieldFilename, "Landsat _1", "Landsat Pr"),
			rename("Landsat Sc", "sceneid"),
			rename("Collection", "collection"),
			rename("WRS Path", "wrs_path"),
			rename("WRS Row", "wrs_row"),
			rename("Scene Clou", model.FieldCloudCover),
			timestamp(model.FieldStartTime, nil, "Start Time"),
			rename("Day/Night", "day_night"),
			rename("Sun Elevat", "sun_elev"),
			rename("Sun Azimut", "sun_azim"),
			rename("Data Type", model.FieldDataType),
			rename("Sensor Ide", "sensorid"),
			translate("Satellite", model.FieldPlatform, landsatSatellites),
			rename("UTM Zone", "utm_zone"),
			rename("Ellipsoid", "ellipsoid"),
		},
		constants: map[string]interface{}{model.FieldMission: MissionLandsat},
	},
	"sentinel-1": {rules: copernicusCommon(
		rename("slicenumber", "slice"),
		rename("sensoroperationalmode", "sensormode"),
		translate("platformidentifier", model.FieldPlatform, sentinel1Platforms),
		rename("polarisationmode", "polarisati"),
	)},
	"sentinel-2": {rules: copernicusCommon(
		rename("cloudcoverpercentage", model.FieldCloudCover),
		rename("tileid", "tileid"),
		rename("platformserialidentifier", model.FieldPlatform),
		rename("processinglevel", model.FieldProcLevel),
	)},
	"sentinel-3": {rules: copernicusCommon(
		translate("productlevel", model.FieldProcLevel, sentinel3Levels),
		translate("platformidentifier", model.FieldPlatform, sentinel3Platforms),
		rename("timeliness", "timeliness"),
		rename("relpassnumber", "passnumRel"),
		rename("passnumber", "passnumAbs"),
		rename("cloudcoverpercentage", model.FieldCloudCover),
	)},
	"sentinel-1-shp": {rules: copernicusShapefileCommon(
		rename("slicenumbe", "slice"),
		rename("sensoroper", "sensormode"),
		translate("platformid", model.FieldPlatform, sentinel1Platforms),
		rename("polarisati", "polarisati"),
	)},
	"sentinel-2-shp": {rules: copernicusShapefileCommon(
		rename("cloudcover", model.FieldCloudCover),
		rename("tileid", "tileid"),
		rename("platformse", model.FieldPlatform),
		rename("processi_1", model.FieldProcLevel),
	)},
	"sentinel-3-shp": {rules: copernicusShapefileCommon(
		translate("productlev", model.FieldProcLevel, sentinel3Levels),
		translate("platformid", model.FieldPlatform, sentinel3Platforms),
		rename("timeliness", "timeliness"),
		rename("relpassnum", "passnumRel"),
		rename("passnumber", "passnumAbs"),
		rename("cloudcover", model.FieldCloudCover),
	)},
	"radarsat-1": {rules: eodmsCommon(radarsat1Collections,
		timestamp(model.FieldStartTime, eodmsStartLayouts, "startDate"),
		translate("processingLevel", model.FieldProcLevel, eodmsLevels),
		rename("productType", model.FieldDataType),
		rename("beam", "beam"),
		rename("lutApplied", "lutApplied"),
	)},
	"radarsat-2": {
		rules: eodmsCommon(radarsat2Collections,
			timestamp(model.FieldStartTime, eodmsStartLayouts, "startDate"),
			rename("segmentQuality", model.FieldQuality),
			rename("transmitPolarization", "polTransmt"),
		),
		constants: map[string]interface{}{model.FieldDataType: "Raw"},
	},
	"radarsat-cm": {rules: eodmsCommon(rcmCollections,
		timestamp(model.FieldStartTime, eodmsStartLayouts, "acquisitionStartDate", "startDate"),
		timestamp("endtime", eodmsStartLayouts, "acquisitionEndDate"),
		translate("processingLevel", model.FieldProcLevel, eodmsLevels),
		rename("productType", model.FieldDataType),
		rename("numberOfAzimuthLooks", "AzLookNum"),
		rename("numberOfRangeLooks", "RngLookNum"),
		rename("beamModeType", "beammode"),
		rename("beamModeDescription", "beam_mode"),
		rename("polarizationInProduct", "PolIn_Prod"),
		rename("sampledPixelSpacing", "pxlSpacing"),
		translate("satelliteId", model.FieldPlatform, rcmSatellites),
		rename("productApplication", "applicatin"),
		rename("relativeOrbit", model.FieldOrbitRel),
		rename("lutApplied", "lutApplied"),
	)},
	"radarsat-1-shp": {rules: eodmsShapefileCommon(radarsat1Collections,
		translate("processing", model.FieldProcLevel, eodmsLevels),
		rename("productTyp", model.FieldDataType),
		rename("beam", "beam"),
		rename("lutApplied", "lutApplied"),
	)},
	"radarsat-2-shp": {
		rules: eodmsShapefileCommon(radarsat2Collections,
			rename("segmentQua", model.FieldQuality),
			rename("transmitPo", "polTransmt"),
		),
		constants: map[string]interface{}{model.FieldDataType: "Raw"},
	},
	"radarsat-cm-shp": {rules: eodmsShapefileCommon(rcmCollections,
		timestamp("endtime", nil, "endtime"),
		translate("processing", model.FieldProcLevel, eodmsLevels),
		rename("productTyp", model.FieldDataType),
		rename("numberOfAz", "AzLookNum"),
		rename("numberOfRa", "RngLookNum"),
		rename("beamModeTy", "beammode"),
		rename("beamModeDe", "beam_mode"),
		rename("polariza_1", "PolIn_Prod"),
		rename("sampledPix", "pxlSpacing"),
		translate("satelliteI", model.FieldPlatform, rcmSatellites),
		rename("productApp", "applicatin"),
		rename("relativeOr", model.FieldOrbitRel),
		rename("lutApplied", "lutApplied"),
	)},
}

// Lookup validates and returns the named mission mapping
func Lookup(name string) (*Mapping, error) {
	def, ok := definitions[name]
	if !ok {
		return nil, fmt.Errorf("unknown mapping %q, expected one of %v", name, Names())
	}
	constants := make(map[string]interface{}, len(def.constants))
	for k, v := range def.constants {
		constants[k] = v
	}
	return NewMapping(name, def.rules, constants, MaxShapefileKeyLen)
}

// Names lists every mission mapping
func Names() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAll validates every mission mapping and joins the failures
func CheckAll() error {
	var errs []error
	for _, name := range Names() {
		if _, err := Lookup(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
