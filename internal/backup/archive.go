package backup

import (
	"archive/zip"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/erazemk/sentinela/internal/model"
)

// FormatVersion is written to every manifest. Restore accepts this version only.
const FormatVersion = 1

// Section names, in archive order.
const (
	SectionMaterials = "materials"
	SectionPersonnel = "personnel"
	SectionCautelas  = "cautelas"
	SectionLogs      = "logs"
	SectionSettings  = "settings"
)

// Sections lists every section a backup must contain.
var Sections = []string{SectionMaterials, SectionPersonnel, SectionCautelas, SectionLogs, SectionSettings}

const manifestFile = "manifest.json"

var zipMagic = []byte("PK\x03\x04")

// Manifest describes a ZIP backup.
type Manifest struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Counts    map[string]int    `json:"counts"`
	Digests   map[string]string `json:"digests"`
}

func digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// encodeSections renders each section of ds as indented JSON.
func encodeSections(ds *model.Dataset) (map[string][]byte, error) {
	values := map[string]any{
		SectionMaterials: ds.Materials,
		SectionPersonnel: ds.Personnel,
		SectionCautelas:  ds.Cautelas,
		SectionLogs:      ds.Logs,
		SectionSettings:  ds.Settings,
	}

	out := make(map[string][]byte, len(values))
	for name, v := range values {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

func counts(ds *model.Dataset) map[string]int {
	return map[string]int{
		SectionMaterials: len(ds.Materials),
		SectionPersonnel: len(ds.Personnel),
		SectionCautelas:  len(ds.Cautelas),
		SectionLogs:      len(ds.Logs),
		SectionSettings:  1,
	}
}

// writeZip writes ds as a ZIP archive with one file per section and a manifest.
func writeZip(w io.Writer, ds *model.Dataset, createdAt time.Time) error {
	sections, err := encodeSections(ds)
	if err != nil {
		return err
	}

	manifest := Manifest{
		Version:   FormatVersion,
		CreatedAt: createdAt,
		Counts:    counts(ds),
		Digests:   make(map[string]string, len(sections)),
	}
	for name, data := range sections {
		manifest.Digests[name] = digest(data)
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	zw := zip.NewWriter(w)
	write := func(name string, data []byte) error {
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: createdAt,
		})
		if err != nil {
			return fmt.Errorf("adding %s: %w", name, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		return nil
	}

	for _, name := range Sections {
		if err := write(name+".json", sections[name]); err != nil {
			return err
		}
	}
	if err := write(manifestFile, manifestData); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

// writeJSON writes ds as a single JSON document keyed by section.
func writeJSON(w io.Writer, ds *model.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// readSections extracts the raw sections from either backup format.
func readSections(data []byte, limit int64) (map[string]json.RawMessage, string, error) {
	if bytes.HasPrefix(data, zipMagic) {
		sections, err := readZip(data, limit)
		return sections, FormatZIP, err
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, FormatJSON, invalid("not a ZIP archive or JSON object: %v", err)
	}
	return sections, FormatJSON, nil
}

func readZip(data []byte, limit int64) (map[string]json.RawMessage, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, invalid("reading archive: %v", err)
	}

	files := make(map[string][]byte)
	var total int64
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, invalid("opening %s: %v", f.Name, err)
		}
		// Bound the total inflated size, whatever the headers claim.
		content, err := io.ReadAll(io.LimitReader(rc, limit-total+1))
		rc.Close()
		if err != nil {
			return nil, invalid("reading %s: %v", f.Name, err)
		}
		total += int64(len(content))
		if total > limit {
			return nil, invalid("archive expands beyond %d bytes", limit)
		}
		files[f.Name] = content
	}

	raw, ok := files[manifestFile]
	if !ok {
		return nil, invalid("archive has no %s", manifestFile)
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, invalid("reading %s: %v", manifestFile, err)
	}
	if manifest.Version != FormatVersion {
		return nil, invalid("unsupported backup version %d", manifest.Version)
	}

	problems := &ValidationError{}
	sections := make(map[string]json.RawMessage, len(Sections))
	for _, name := range Sections {
		content, ok := files[name+".json"]
		if !ok {
			// Reported as a missing section by validation.
			continue
		}
		want, ok := manifest.Digests[name]
		if !ok {
			problems.add("manifest has no digest for %s", name)
			continue
		}
		if got := digest(content); got != want {
			problems.add("%s.json digest mismatch", name)
			continue
		}
		sections[name] = content
	}
	if !problems.empty() {
		return nil, problems
	}
	return sections, nil
}
