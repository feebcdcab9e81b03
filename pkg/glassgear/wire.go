package glassgear

// Characteristic identifies one notification stream on the wireless
// link. The link maps these onto its own characteristic handles.
type Characteristic byte

const (
	CharAudio Characteristic = iota
	CharPhoto
	CharBattery
	CharCodec
	CharOTAStatus
)

// String returns the string representation of the characteristic.
func (c Characteristic) String() string {
	switch c {
	case CharAudio:
		return "audio"
	case CharPhoto:
		return "photo"
	case CharBattery:
		return "battery"
	case CharCodec:
		return "codec"
	case CharOTAStatus:
		return "ota_status"
	default:
		return "unknown"
	}
}

// Wire formats produced by the core. All layouts are bit-exact.
const (
	// audioHeaderSize prefixes every audio notify payload:
	// [seq_lo][seq_hi][subindex]. The sub-index is reserved for
	// fragmentation and always 0.
	audioHeaderSize = 3

	// photoFirstChunkCap is the data cap of chunk 0, which carries
	// the orientation byte: [0x00][0x00][orientation][data].
	photoFirstChunkCap = 199

	// photoChunkCap is the data cap of subsequent chunks:
	// [chunk_lo][chunk_hi][data].
	photoChunkCap = 200

	// photoHeaderSize / photoFirstHeaderSize are the chunk header
	// lengths.
	photoHeaderSize      = 2
	photoFirstHeaderSize = 3
)

// photoTerminator ends every photo transfer, exactly once.
var photoTerminator = [2]byte{0xFF, 0xFF}

// CodecOpus is the on-wire codec identifier for Opus.
const CodecOpus byte = 21

// Photo control values written by the client.
const (
	// PhotoControlSingle requests one photo.
	PhotoControlSingle int8 = -1

	// PhotoControlStop stops capture.
	PhotoControlStop int8 = 0

	// PhotoControlMinInterval is the smallest accepted interval-capture
	// request in seconds. The configured interval is used regardless of
	// the requested value.
	PhotoControlMinInterval int8 = 5
)
