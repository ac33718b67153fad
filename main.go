package main

import (
	"fmt"
	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"strconv"
	"strings"
	"tvf/feature"
	"tvf/importing"
	"tvf/index"
	ownIo "tvf/io"
	"tvf/web"
)

const VERSION = "v0.1.0"

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Import  struct {
		Input    string  `help:"The input file. Either .osm or .osm.pbf." placeholder:"<input-file>" arg:"" type:"existingfile"`
		Output   string  `help:"The tile file to write." placeholder:"<output-file>" arg:""`
		TileSize float64 `help:"Tile edge length in degrees." default:"1"`
	} `cmd:"" help:"Imports the given OSM file into a tile file."`
	Query struct {
		File   string `help:"The tile file to query." placeholder:"<tile-file>" arg:"" type:"existingfile"`
		Bbox   string `help:"The bounding box as 'minLon,minLat,maxLon,maxLat'." placeholder:"<bbox>" arg:""`
		Output string `help:"GeoJSON output file." default:"output.geojson"`
	} `cmd:"" help:"Returns all features within the given bounding box as GeoJSON."`
	Info struct {
		File string `help:"The tile file to inspect." placeholder:"<tile-file>" arg:"" type:"existingfile"`
	} `cmd:"" help:"Prints header and tile statistics of a tile file."`
	Serve struct {
		File string `help:"The tile file to serve." placeholder:"<tile-file>" arg:"" type:"existingfile"`
		Port string `help:"Port of the HTTP server." default:"8080"`
	} `cmd:"" help:"Starts an HTTP server answering bounding-box queries."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("tvf"),
		kong.Description("Reads, writes and queries tiled vector-map files."),
		kong.Vars{
			"version": VERSION,
		},
	)

	if strings.ToLower(cli.Logging) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(cli.Logging) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(cli.Logging) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	switch ctx.Command() {
	case "import <input> <output>":
		err := importing.Import(cli.Import.Input, cli.Import.Output, cli.Import.TileSize)
		sigolo.FatalCheck(err)
	case "query <file> <bbox>":
		bbox, err := parseBbox(cli.Query.Bbox)
		sigolo.FatalCheck(err)

		reader, err := index.Open(cli.Query.File, nil)
		sigolo.FatalCheck(err)
		defer reader.Close()

		var features []*feature.Feature
		err = reader.ForEachFeature(bbox, func(resolvedFeature *feature.Feature) bool {
			features = append(features, resolvedFeature)
			return true
		})
		sigolo.FatalCheck(err)

		sigolo.Debugf("Found %d features", len(features))

		err = ownIo.WriteFeaturesAsGeoJsonFile(cli.Query.Output, features)
		sigolo.FatalCheck(err)
	case "info <file>":
		reader, err := index.Open(cli.Info.File, nil)
		sigolo.FatalCheck(err)
		defer reader.Close()

		printInfo(reader)
	case "serve <file>":
		web.StartServer(cli.Serve.Port, cli.Serve.File)
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}

func parseBbox(bboxString string) (orb.Bound, error) {
	parts := strings.Split(bboxString, ",")
	if len(parts) != 4 {
		return orb.Bound{}, errors.Errorf("Bounding box must have the form 'minLon,minLat,maxLon,maxLat' but was '%s'", bboxString)
	}

	values := make([]float64, 4)
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, errors.Wrapf(err, "Invalid bounding box value '%s'", part)
		}
		values[i] = value
	}

	return orb.Bound{
		Min: orb.Point{values[0], values[1]},
		Max: orb.Point{values[2], values[3]},
	}, nil
}

func printInfo(reader *index.Reader) {
	sigolo.Infof("Version:    %d", reader.Version())
	sigolo.Infof("Tile count: %d", reader.TileCount())

	entries, err := reader.TileEntries()
	sigolo.FatalCheck(err)

	for _, entry := range entries {
		block, found, err := reader.TileBlock(entry.ID)
		sigolo.FatalCheck(err)
		if !found {
			continue
		}
		sigolo.Infof("Tile %d: offset=%d, features=%d, coordinates=%d, strings=%d, characters=%d",
			entry.ID, entry.OffsetInBytes, block.FeaturesCount, block.CoordinatesCount, block.StringCount, block.CharactersCount)
	}
}
