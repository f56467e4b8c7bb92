package pngstash

// ChunkInfo summarizes one chunk for display and inspection
type ChunkInfo struct {
	Type       string `json:"type"`
	Length     int    `json:"length"`
	CRC        uint32 `json:"crc"`
	Critical   bool   `json:"critical"`
	Public     bool   `json:"public"`
	SafeToCopy bool   `json:"safe_to_copy"`
	Valid      bool   `json:"valid"`
	Hidden     bool   `json:"hidden"`
}
