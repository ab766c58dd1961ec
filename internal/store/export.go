package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/mcqxai/internal/model"
)

// ExportLectures groups every stored paragraph by source.
func (s *Store) ExportLectures() (model.LectureExport, error) {
	export := model.LectureExport{ExportedAt: time.Now().UTC()}

	sources, err := s.ListSources()
	if err != nil {
		return export, fmt.Errorf("list sources: %w", err)
	}

	for _, src := range sources {
		paras, err := s.ListParagraphs(src)
		if err != nil {
			return export, fmt.Errorf("list paragraphs for %s: %w", src, err)
		}
		hash, err := s.ImportedFileHash(src)
		if err != nil {
			return export, fmt.Errorf("import record for %s: %w", src, err)
		}
		export.Sources = append(export.Sources, model.LectureSource{
			Source:     src,
			SHA256:     hash,
			Paragraphs: model.Texts(paras),
		})
		export.ParagraphCount += len(paras)
	}
	return export, nil
}
