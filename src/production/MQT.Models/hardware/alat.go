package hardware_models

import "strings"

// JenisKelamin is the sex of the child wearing the alat
type JenisKelamin string

const (
	LakiLaki  JenisKelamin = "L"
	Perempuan JenisKelamin = "P"
)

// ParseJenisKelamin accepts the short and long forms, case-insensitively
func ParseJenisKelamin(s string) (JenisKelamin, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "laki-laki", "laki laki", "lakilaki":
		return LakiLaki, true
	case "p", "perempuan":
		return Perempuan, true
	}
	return "", false
}

// Alat represents a monitored device bound to one owner
type Alat struct {
	IDAlat       string       `json:"idalat" db:"idalat"`
	Username     string       `json:"username" db:"username"`
	NamaAnak     string       `json:"nama_anak" db:"nama_anak"`
	Usia         int          `json:"usia" db:"usia"`
	JenisKelamin JenisKelamin `json:"jeniskelamin" db:"jeniskelamin"`
}

// AlatSummary is the projection returned by the list endpoint
type AlatSummary struct {
	NamaAnak string `json:"nama_anak" db:"nama_anak"`
	IDAlat   string `json:"idalat" db:"idalat"`
}
