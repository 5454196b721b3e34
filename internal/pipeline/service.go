package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"meshalias/internal/config"
	"meshalias/internal/mesh"
	"meshalias/internal/storage"
)

type Service struct {
	cfg config.Config
	log zerolog.Logger
}

func NewService(cfg config.Config, log zerolog.Logger) *Service {
	return &Service{cfg: cfg, log: log}
}

type CondenseResult struct {
	Stats      mesh.BuildStats
	Conditions int
	Aliases    int
}

type LoadResult struct {
	Conditions int
	Aliases    int
}

type RunResult struct {
	Condense CondenseResult
	Rows     int
}

func (s *Service) schema() mesh.Schema {
	schema := mesh.DefaultSchema()
	if s.cfg.CategoryMarker != "" {
		schema.CategoryMarker = s.cfg.CategoryMarker
	}
	return schema
}

func (s *Service) expander() *mesh.Expander {
	return mesh.NewExpander(s.cfg.AliasFields)
}

// BuildMapping parses the descriptor XML at xmlPath and condenses it.
func (s *Service) BuildMapping(xmlPath string) (*mesh.Mapping, mesh.BuildStats, error) {
	f, err := os.Open(xmlPath)
	if err != nil {
		return nil, mesh.BuildStats{}, fmt.Errorf("could not open file %s: %w", xmlPath, err)
	}
	defer f.Close()

	root, err := mesh.ParseDocument(f)
	if err != nil {
		return nil, mesh.BuildStats{}, fmt.Errorf("could not read in data from file %s: %w", xmlPath, err)
	}

	condenser, err := mesh.NewCondenser(s.schema(), s.cfg.AliasPolicy, s.log)
	if err != nil {
		return nil, mesh.BuildStats{}, err
	}
	return condenser.BuildMapping(root)
}

// Condense writes the intermediate JSON for xmlPath. Nothing is written when
// condensation fails.
func (s *Service) Condense(xmlPath, jsonPath string) (CondenseResult, error) {
	start := time.Now()
	m, stats, err := s.BuildMapping(xmlPath)
	if err != nil {
		return CondenseResult{Stats: stats}, err
	}
	if err := writeFileAtomic(jsonPath, func(f *os.File) error { return mesh.WriteMapping(f, m) }); err != nil {
		return CondenseResult{Stats: stats}, err
	}

	res := CondenseResult{Stats: stats, Conditions: m.Len(), Aliases: m.AliasCount()}
	s.log.Info().
		Str("input", xmlPath).
		Str("output", jsonPath).
		Int("descriptors", stats.Seen).
		Int("conditions", res.Conditions).
		Int("skipped", stats.Skipped).
		Int("duplicates", stats.Duplicates).
		Dur("took", time.Since(start)).
		Msg("condensed descriptors")
	return res, nil
}

func (s *Service) ReadMapping(jsonPath string) (*mesh.Mapping, error) {
	f, err := os.Open(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("could not open file %s: %w", jsonPath, err)
	}
	defer f.Close()
	return mesh.ReadMapping(f)
}

// Expand writes the alias CSV for the intermediate JSON at jsonPath.
func (s *Service) Expand(jsonPath, csvPath string) (int, error) {
	m, err := s.ReadMapping(jsonPath)
	if err != nil {
		return 0, err
	}
	return s.expandToCSV(m, csvPath)
}

func (s *Service) expandToCSV(m *mesh.Mapping, csvPath string) (int, error) {
	rows := 0
	err := writeFileAtomic(csvPath, func(f *os.File) error {
		sink := mesh.NewCSVSink(f)
		n, err := s.expander().Expand(m, sink)
		if err != nil {
			return err
		}
		rows = n
		return sink.Flush()
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("output", csvPath).Int("terms", m.Len()).Int("rows", rows).Msg("expanded aliases")
	return rows, nil
}

// Run condenses xmlPath into jsonPath and expands the result into csvPath.
func (s *Service) Run(xmlPath, jsonPath, csvPath string) (RunResult, error) {
	cres, err := s.Condense(xmlPath, jsonPath)
	if err != nil {
		return RunResult{Condense: cres}, err
	}
	rows, err := s.Expand(jsonPath, csvPath)
	if err != nil {
		return RunResult{Condense: cres}, err
	}
	return RunResult{Condense: cres, Rows: rows}, nil
}

// ExportXLSX writes the alias relation of jsonPath as a workbook.
func (s *Service) ExportXLSX(jsonPath, xlsxPath string) (int, error) {
	m, err := s.ReadMapping(jsonPath)
	if err != nil {
		return 0, err
	}
	sink, err := NewXLSXSink()
	if err != nil {
		return 0, err
	}
	rows, err := s.expander().Expand(m, sink)
	if err != nil {
		_ = sink.Discard()
		return 0, err
	}
	if err := sink.SaveAs(xlsxPath); err != nil {
		return 0, err
	}
	s.log.Info().Str("output", xlsxPath).Int("rows", rows).Msg("exported aliases workbook")
	return rows, nil
}

// Load replaces the stored conditions and alias index with jsonPath's contents.
func (s *Service) Load(db *storage.DB, jsonPath string) (LoadResult, error) {
	m, err := s.ReadMapping(jsonPath)
	if err != nil {
		return LoadResult{}, err
	}
	if err := db.ReplaceConditions(m); err != nil {
		return LoadResult{}, fmt.Errorf("store conditions: %w", err)
	}

	w, err := db.NewAliasWriter()
	if err != nil {
		return LoadResult{}, err
	}
	rows, err := s.expander().Expand(m, w)
	if err != nil {
		_ = w.Rollback()
		return LoadResult{}, fmt.Errorf("store aliases: %w", err)
	}
	if err := w.Commit(); err != nil {
		return LoadResult{}, err
	}

	_ = db.SetMetadata("load.source", jsonPath)
	_ = db.SetMetadata("load.conditions", strconv.Itoa(m.Len()))
	_ = db.SetMetadata("load.at", time.Now().UTC().Format(time.RFC3339))

	s.log.Info().Str("input", jsonPath).Int("conditions", m.Len()).Int("aliases", rows).Msg("loaded alias index")
	return LoadResult{Conditions: m.Len(), Aliases: rows}, nil
}

func writeFileAtomic(path string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
