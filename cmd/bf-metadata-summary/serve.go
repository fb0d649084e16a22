// Copyright 2018, RadiantBlue Technologies, Inc.
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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/venicegeo/bf-metadata-summary/shapefile"
	"github.com/venicegeo/bf-metadata-summary/util"
	cli "gopkg.in/urfave/cli.v1"
)

func getPortStr() string {
	if port, ok := os.LookupEnv("PORT"); ok {
		return ":" + port
	}
	return ":8080"
}

// ArtifactHandler serves the artifacts written to one directory. Shapefiles
// are returned converted to GeoJSON; GeoJSON files are returned as they are.
type ArtifactHandler struct {
	Dir     string
	Context util.LogContext
}

// ServeHTTP implements the http.Handler interface for the ArtifactHandler type
func (h ArtifactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name, ok := mux.Vars(r)["name"]
	if !ok {
		h.list(w, r)
		return
	}
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		util.HTTPError(r, w, h.Context, fmt.Sprintf("Invalid artifact name %v", name), http.StatusBadRequest)
		return
	}
	path := filepath.Join(h.Dir, name)
	if _, err := os.Stat(path); err != nil {
		util.HTTPError(r, w, h.Context, fmt.Sprintf("No artifact named %v", name), http.StatusNotFound)
		return
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".geojson", ".json":
		w.Header().Set("Content-Type", "application/geo+json")
		http.ServeFile(w, r, path)
	case ".shp":
		ds, err := shapefile.Load(path)
		if err != nil {
			message := fmt.Sprintf("Could not read %v", name)
			util.LogSimpleErr(h.Context, message, err)
			util.HTTPError(r, w, h.Context, message, http.StatusInternalServerError)
			return
		}
		featureCollection, err := ds.GeoJSONFeatureCollection()
		if err != nil {
			message := fmt.Sprintf("Error converting to feature collection: %v", err)
			util.LogSimpleErr(h.Context, message, err)
			util.HTTPError(r, w, h.Context, message, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write([]byte(featureCollection.String()))
	default:
		util.HTTPError(r, w, h.Context, fmt.Sprintf("%v is not a shapefile or GeoJSON artifact", name), http.StatusBadRequest)
	}
}

func (h ArtifactHandler) list(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	err := filepath.WalkDir(h.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != h.Dir {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".shp", ".geojson":
			if !strings.HasPrefix(d.Name(), ".") {
				names = append(names, d.Name())
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		message := "Could not list artifacts"
		util.LogSimpleErr(h.Context, message, err)
		util.HTTPError(r, w, h.Context, message, http.StatusInternalServerError)
		return
	}
	sort.Strings(names)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(names)
}

func createRouter(ctx util.LogContext) *mux.Router {
	artifacts := ArtifactHandler{Dir: util.GetOutputDir(), Context: ctx}
	router := mux.NewRouter()
	router.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte("OK"))
	})
	router.Handle("/artifacts", artifacts).Methods(http.MethodGet)
	router.Handle("/artifacts/{name}", artifacts).Methods(http.MethodGet)
	return router
}

func serveAction(*cli.Context) {
	logContext := &(util.BasicLogContext{})
	portStr := getPortStr()
	util.LogInfo(logContext, fmt.Sprintf("Serving artifacts from %s on %s", util.GetOutputDir(), portStr))
	launchServerFunc(portStr, createRouter(logContext))
}

var launchServerFunc = launchServer

func launchServer(portStr string, router *mux.Router) {
	server := http.Server{
		Addr:    portStr,
		Handler: router,
	}

	log.Fatal(server.ListenAndServe())
}
