package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
)

// gltfParser loads a glTF or GLB file and serves typed accessor reads over
// its buffers. Internal to the loader package.
type gltfParser interface {
	// Parse loads and parses a glTF/GLB file, detecting the container
	// format from the extension and the magic bytes.
	//
	// Parameters:
	//   - path: path to the .gltf or .glb file
	//
	// Returns:
	//   - error: an error if parsing fails
	Parse(path string) error

	// ParseReader parses a glTF document from a stream. External file
	// URIs cannot be resolved in this mode.
	//
	// Parameters:
	//   - r: the stream of glTF JSON or GLB bytes
	//   - isGLB: true when the stream carries GLB framing
	//
	// Returns:
	//   - error: an error if parsing fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the parsed document, or nil before a successful
	// Parse.
	//
	// Returns:
	//   - *gltfDocument: the document
	Document() *gltfDocument

	// BaseDir returns the directory of the parsed file, for resolving
	// relative resource URIs.
	//
	// Returns:
	//   - string: the base directory
	BaseDir() string

	// ReadFloatAccessor reads an accessor of FLOAT components as a flat
	// float32 slice, validating the element type.
	//
	// Parameters:
	//   - accessorIndex: the accessor to read
	//   - wantType: the required element type (SCALAR, VEC2, ...)
	//
	// Returns:
	//   - []float32: count*components floats in element order
	//   - error: an error if the accessor mismatches or reading fails
	ReadFloatAccessor(accessorIndex int, wantType string) ([]float32, error)

	// ReadIndexAccessor reads a SCALAR accessor of unsigned byte, short,
	// or int components, widened to uint32.
	//
	// Parameters:
	//   - accessorIndex: the accessor to read
	//
	// Returns:
	//   - []uint32: the indices
	//   - error: an error if the accessor mismatches or reading fails
	ReadIndexAccessor(accessorIndex int) ([]uint32, error)

	// ReadBufferView reads a bufferView's raw bytes, used for images that
	// bypass the accessor layer.
	//
	// Parameters:
	//   - bufferViewIndex: the bufferView to read
	//
	// Returns:
	//   - []byte: a copy of the view's bytes
	//   - error: an error if the view is out of range
	ReadBufferView(bufferViewIndex int) ([]byte, error)
}

type gltfParserImpl struct {
	baseDir  string
	document *gltfDocument
	glbChunk []byte
}

var _ gltfParser = &gltfParserImpl{}

func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument { return p.document }
func (p *gltfParserImpl) BaseDir() string         { return p.baseDir }

func (p *gltfParserImpl) Parse(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".glb") ||
		(len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic) {
		return p.parseGLB(data)
	}
	return p.parseJSON(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read stream: %w", err)
	}
	if isGLB {
		return p.parseGLB(data)
	}
	return p.parseJSON(data)
}

func (p *gltfParserImpl) parseJSON(data []byte) error {
	doc, err := decodeDocument(data)
	if err != nil {
		return err
	}
	if err := p.loadBuffers(doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	p.document = doc
	return nil
}

// parseGLB unwraps the GLB container: a 12-byte header followed by
// length-prefixed chunks, of which JSON is mandatory and BIN backs the
// first URI-less buffer.
func (p *gltfParserImpl) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)
	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonChunk, binChunk []byte
	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read GLB chunk header: %w", err)
		}
		payload := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, payload); err != nil {
			return fmt.Errorf("failed to read GLB chunk payload: %w", err)
		}
		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			jsonChunk = payload
		case gltfGLBChunkBIN:
			binChunk = payload
		}
	}
	if jsonChunk == nil {
		return errMissingJSONChunk
	}
	p.glbChunk = binChunk

	return p.parseJSON(jsonChunk)
}

// loadBuffers resolves every buffer's bytes from its URI, an inline data
// URI, or the GLB binary chunk.
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		if buf.URI == "" {
			if i != 0 || p.glbChunk == nil {
				return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
			}
			buf.Data = p.glbChunk
		} else if strings.HasPrefix(buf.URI, "data:") {
			data, _, err := decodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		} else {
			data, err := os.ReadFile(filepath.Join(p.baseDir, buf.URI))
			if err != nil {
				return fmt.Errorf("buffer %d: failed to read %q: %w", i, buf.URI, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// decodeDataURI decodes a base64 data URI and returns the payload with its
// media type. Format: data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) ([]byte, string, error) {
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return nil, "", errors.New("malformed data URI")
	}
	header := uri[len("data:"):comma]
	if !strings.Contains(header, "base64") {
		return nil, "", fmt.Errorf("unsupported data URI encoding %q", header)
	}
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	mediaType := strings.TrimSuffix(header, ";base64")
	return data, mediaType, nil
}

// readAccessorBytes de-strides an accessor into tightly packed element
// bytes.
func (p *gltfParserImpl) readAccessorBytes(accessorIndex int) ([]byte, *gltfAccessor, error) {
	if p.document == nil {
		return nil, nil, errors.New("no document loaded")
	}
	if accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}
	acc := &p.document.Accessors[accessorIndex]
	if acc.Sparse != nil {
		return nil, nil, errors.New("sparse accessors are not supported")
	}
	if acc.BufferView == nil {
		return nil, nil, errors.New("accessor has no bufferView")
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(p.document.BufferViews) {
		return nil, nil, fmt.Errorf("accessor bufferView %d out of range", *acc.BufferView)
	}
	bv := &p.document.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(p.document.Buffers) {
		return nil, nil, fmt.Errorf("bufferView buffer %d out of range", bv.Buffer)
	}
	buf := &p.document.Buffers[bv.Buffer]

	elementSize := componentSize(acc.ComponentType) * componentCount(acc.Type)
	if elementSize == 0 {
		return nil, nil, fmt.Errorf("unsupported accessor layout: type=%s componentType=%d", acc.Type, acc.ComponentType)
	}
	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	base := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 {
		last := base + (acc.Count-1)*stride + elementSize
		if last > len(buf.Data) {
			return nil, nil, fmt.Errorf("accessor %d overruns its buffer: need %d bytes, have %d", accessorIndex, last, len(buf.Data))
		}
	}

	packed := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		copy(packed[i*elementSize:(i+1)*elementSize], buf.Data[base+i*stride:])
	}
	return packed, acc, nil
}

func (p *gltfParserImpl) ReadFloatAccessor(accessorIndex int, wantType string) ([]float32, error) {
	packed, acc, err := p.readAccessorBytes(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != wantType || acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("accessor %d is not %s FLOAT: type=%s componentType=%d",
			accessorIndex, wantType, acc.Type, acc.ComponentType)
	}

	out := make([]float32, acc.Count*componentCount(acc.Type))
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(packed[i*4:]))
	}
	return out, nil
}

func (p *gltfParserImpl) ReadIndexAccessor(accessorIndex int) ([]uint32, error) {
	packed, acc, err := p.readAccessorBytes(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeScalar {
		return nil, fmt.Errorf("index accessor %d is not SCALAR: type=%s", accessorIndex, acc.Type)
	}

	out := make([]uint32, acc.Count)
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		for i := range out {
			out[i] = uint32(packed[i])
		}
	case gltfComponentTypeUnsignedShort:
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(packed[i*2:]))
		}
	case gltfComponentTypeUnsignedInt:
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(packed[i*4:])
		}
	default:
		return nil, fmt.Errorf("unsupported index component type %d", acc.ComponentType)
	}
	return out, nil
}

func (p *gltfParserImpl) ReadBufferView(bufferViewIndex int) ([]byte, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	if bufferViewIndex < 0 || bufferViewIndex >= len(p.document.BufferViews) {
		return nil, fmt.Errorf("bufferView index %d out of range", bufferViewIndex)
	}
	bv := &p.document.BufferViews[bufferViewIndex]
	if bv.Buffer < 0 || bv.Buffer >= len(p.document.Buffers) {
		return nil, fmt.Errorf("bufferView buffer %d out of range", bv.Buffer)
	}
	buf := &p.document.Buffers[bv.Buffer]
	end := bv.ByteOffset + bv.ByteLength
	if end > len(buf.Data) {
		return nil, fmt.Errorf("bufferView %d overruns its buffer: need %d bytes, have %d", bufferViewIndex, end, len(buf.Data))
	}
	out := make([]byte, bv.ByteLength)
	copy(out, buf.Data[bv.ByteOffset:end])
	return out, nil
}

func componentSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

func componentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	default:
		return 0
	}
}
