package services

import (
	"context"
	"fmt"
	"strings"

	"chitieu/internal/core"
	"chitieu/internal/log"
)

// Keywords loads the keyword sets from the store and remembers them for
// the keywords tab.
func (s *Session) Keywords(ctx context.Context) ([]core.KeywordSet, error) {
	s.setTab(TabKeywords)
	return s.loadKeywords(ctx)
}

func (s *Session) loadKeywords(ctx context.Context) ([]core.KeywordSet, error) {
	gen := s.begin(ViewKeywords)
	sets, err := s.remote.Keywords(ctx)
	if err != nil {
		s.fetchFailed(ctx, ViewKeywords, err)
		return nil, err
	}
	if err := s.commit(ViewKeywords, gen, func() { s.keywords = cloneKeywordSets(sets) }); err != nil {
		return nil, err
	}
	return sets, nil
}

// AddKeyword attaches comma-separated keywords to category and reloads the
// keyword list.
func (s *Session) AddKeyword(ctx context.Context, category, input string) ([]core.KeywordSet, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, core.Invalid("category", core.ErrEmptyCategory)
	}
	keywords := core.JoinKeywords(input)
	if keywords == "" {
		return nil, core.Invalid("keyword", core.ErrEmptyKeyword)
	}

	if err := s.remote.AddKeyword(ctx, category, keywords); err != nil {
		s.logger.LogError(ctx, "Add keyword failed", err, log.OpCreate,
			log.NewFields().WithErrorKind(string(Kind(err))))
		return nil, err
	}
	s.logger.InfoContext(ctx, "Keywords added", log.FieldCategory, category, "keywords", keywords)
	return s.reloadKeywords(ctx), nil
}

// DeleteKeyword removes keyword from category. The current keyword list is
// fetched first; an unknown category or keyword is refused locally.
func (s *Session) DeleteKeyword(ctx context.Context, category, keyword string) ([]core.KeywordSet, error) {
	category = strings.TrimSpace(category)
	keyword = strings.TrimSpace(keyword)
	if category == "" {
		return nil, core.Invalid("category", core.ErrEmptyCategory)
	}
	if keyword == "" {
		return nil, core.Invalid("keyword", core.ErrEmptyKeyword)
	}

	sets, err := s.remote.Keywords(ctx)
	if err != nil {
		s.fetchFailed(ctx, ViewKeywords, err)
		return nil, err
	}
	set, ok := findKeywordSet(sets, category)
	if !ok {
		return nil, core.Invalid("category", fmt.Errorf("%w: %q", ErrUnknownCategory, category))
	}
	if !set.Contains(keyword) {
		return nil, core.Invalid("keyword", fmt.Errorf("%w: %q in %q", ErrUnknownKeyword, keyword, category))
	}

	if err := s.remote.DeleteKeyword(ctx, category, keyword); err != nil {
		s.logger.LogError(ctx, "Delete keyword failed", err, log.OpDelete,
			log.NewFields().WithErrorKind(string(Kind(err))))
		return nil, err
	}
	s.logger.InfoContext(ctx, "Keyword deleted", log.FieldCategory, category, "keyword", keyword)
	return s.reloadKeywords(ctx), nil
}

// reloadKeywords refreshes the list after a keyword change. If the reload
// fails the change still stands, so the last known list is returned.
func (s *Session) reloadKeywords(ctx context.Context) []core.KeywordSet {
	sets, err := s.loadKeywords(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return cloneKeywordSets(s.keywords)
	}
	return sets
}

func findKeywordSet(sets []core.KeywordSet, category string) (core.KeywordSet, bool) {
	for _, set := range sets {
		if set.Category == category {
			return set, true
		}
	}
	return core.KeywordSet{}, false
}

func cloneKeywordSets(in []core.KeywordSet) []core.KeywordSet {
	if in == nil {
		return nil
	}
	return append([]core.KeywordSet(nil), in...)
}
