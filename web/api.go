package web

import (
	"encoding/json"
	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"net/http"
	"tvf/feature"
	"tvf/index"
	ownIo "tvf/io"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type QueryRequest struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// StartServer serves bounding-box queries over the given tile file. The
// reader is opened once and shared by all requests, which is safe since
// queries never mutate it.
func StartServer(port string, tileFilePath string) {
	reader, err := index.Open(tileFilePath, nil)
	sigolo.FatalCheck(err)

	router := initRouter(reader)

	sigolo.Infof("Start server on port %s", port)
	err = http.ListenAndServe(":"+port, router)
	sigolo.FatalCheck(err)
}

func initRouter(reader *index.Reader) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/query", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Access-Control-Allow-Origin", "*")
		writer.Header().Set("Content-Type", "application/json")

		var queryRequest QueryRequest
		err := json.NewDecoder(request.Body).Decode(&queryRequest)
		if err != nil {
			sigolo.Errorf("Error reading query request: %+v", err)
			writeError(writer, http.StatusBadRequest, "Error reading query request body.")
			return
		}

		bbox := orb.Bound{
			Min: orb.Point{queryRequest.MinLon, queryRequest.MinLat},
			Max: orb.Point{queryRequest.MaxLon, queryRequest.MaxLat},
		}

		var features []*feature.Feature
		err = reader.ForEachFeature(bbox, func(resolvedFeature *feature.Feature) bool {
			features = append(features, resolvedFeature)
			return true
		})
		if err != nil {
			sigolo.Errorf("Error executing query: %+v", err)
			writeError(writer, http.StatusInternalServerError, "Error executing query.")
			return
		}

		sigolo.Debugf("Found %d features", len(features))

		err = ownIo.WriteFeaturesAsGeoJson(features, writer)
		if err != nil {
			sigolo.Errorf("Error writing query result: %+v", err)
			writeError(writer, http.StatusInternalServerError, "Error writing query result.")
			return
		}
	}).Methods(http.MethodPost)

	return router
}

func writeError(writer http.ResponseWriter, statusCode int, message string) {
	writer.WriteHeader(statusCode)

	errorResponseBytes, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		sigolo.Errorf("Error marshalling error response: %+v", err)
		return
	}

	_, err = writer.Write(errorResponseBytes)
	if err != nil {
		sigolo.Errorf("Error writing error response: %+v", err)
	}
}
