// Package index implements the reader side of tiled vector-map files: tile
// lookup, string table resolution and the bounding-box feature query.
package index

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"tvf/common"
	"tvf/format"
	"tvf/storage"
)

// Reader provides queries over one opened tile file. It holds no mutable state
// besides the underlying mapping, so a Reader is safe for concurrent queries.
// Close must be called exactly once when the Reader is no longer needed.
type Reader struct {
	file                *storage.MappedFile
	header              format.FileHeader
	tilesForBoundingBox common.TilesForBoundingBoxFunc
}

// Open maps the given tile file and reads its header. The tiling function
// determines the candidate tiles of a bounding-box query and must match the
// scheme the file was written with. A nil function selects the default grid
// scheme.
func Open(path string, tilesForBoundingBox common.TilesForBoundingBoxFunc) (*Reader, error) {
	file, err := storage.Open(path)
	if err != nil {
		return nil, err
	}

	headerData, err := file.Slice(0, format.FileHeaderSize)
	if err != nil {
		closeErr := file.Close()
		if closeErr != nil {
			sigolo.Warnf("Unable to close tile file %s: %v", path, closeErr)
		}
		return nil, errors.Wrapf(err, "Unable to read file header of %s", path)
	}

	header := format.DecodeFileHeader(headerData)
	sigolo.Debugf("Opened tile file %s (version=%d, tiles=%d, size=%d bytes)", path, header.Version, header.TileCount, file.Size())

	if tilesForBoundingBox == nil {
		tilesForBoundingBox = common.NewGridScheme(common.DefaultTileSize).TilesForBoundingBox
	}

	return &Reader{
		file:                file,
		header:              header,
		tilesForBoundingBox: tilesForBoundingBox,
	}, nil
}

// Close releases the underlying mapping. Features returned by queries stay
// valid, but no further queries must be started and no query may still be
// running.
func (r *Reader) Close() error {
	return r.file.Close()
}

func (r *Reader) Version() int64 {
	return r.header.Version
}

func (r *Reader) TileCount() int32 {
	return r.header.TileCount
}

// TileEntries returns the complete tile header table in file order.
func (r *Reader) TileEntries() ([]format.TileHeaderEntry, error) {
	tableData, err := r.file.Slice(format.FileHeaderSize, uint64(r.header.TileCount)*format.TileHeaderEntrySize)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read tile header table with %d entries", r.header.TileCount)
	}

	entries := make([]format.TileHeaderEntry, r.header.TileCount)
	for i := range entries {
		entries[i] = format.DecodeTileHeaderEntry(tableData[i*format.TileHeaderEntrySize:])
	}

	return entries, nil
}

// LocateTile scans the tile header table in file order and returns the byte
// offset of the first entry with the given ID. The second return value is
// false if no entry matches. Duplicate IDs are not rejected, the first entry
// wins.
func (r *Reader) LocateTile(tileId int32) (uint64, bool, error) {
	tableData, err := r.file.Slice(format.FileHeaderSize, uint64(r.header.TileCount)*format.TileHeaderEntrySize)
	if err != nil {
		return 0, false, errors.Wrapf(err, "Unable to read tile header table with %d entries", r.header.TileCount)
	}

	for i := int32(0); i < r.header.TileCount; i++ {
		entry := format.DecodeTileHeaderEntry(tableData[i*format.TileHeaderEntrySize:])
		if entry.ID == tileId {
			return entry.OffsetInBytes, true, nil
		}
	}

	return 0, false, nil
}

// TileBlock resolves a tile ID to its block header. The second return value is
// false if the tile is not present in the file.
func (r *Reader) TileBlock(tileId int32) (format.TileBlockHeader, bool, error) {
	tileOffset, found, err := r.LocateTile(tileId)
	if err != nil || !found {
		return format.TileBlockHeader{}, false, err
	}

	block, err := r.tileBlockHeader(tileOffset)
	if err != nil {
		return format.TileBlockHeader{}, false, errors.Wrapf(err, "Unable to read block header of tile %d", tileId)
	}

	return block, true, nil
}

func (r *Reader) tileBlockHeader(tileOffset uint64) (format.TileBlockHeader, error) {
	blockData, err := r.file.Slice(tileOffset, format.TileBlockHeaderSize)
	if err != nil {
		return format.TileBlockHeader{}, err
	}
	return format.DecodeTileBlockHeader(blockData), nil
}
