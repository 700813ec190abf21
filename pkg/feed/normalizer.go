package feed

import "github.com/umputun/feedmailer/pkg/domain"

// Normalize converts raw entries into articles with stable identities.
// Identity is the entry GUID when present, the link otherwise. Entries with
// neither are dropped and counted; the caller decides whether to log them.
// Duplicated identities keep the first occurrence in feed order. Pure function,
// no side effects.
func Normalize(entries []RawEntry) (articles []domain.Article, dropped int) {
	articles = make([]domain.Article, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		identity := e.GUID
		if identity == "" {
			identity = e.Link
		}
		if identity == "" {
			dropped++
			continue
		}

		if _, ok := seen[identity]; ok {
			continue // first occurrence wins
		}
		seen[identity] = struct{}{}

		articles = append(articles, domain.Article{
			Identity:  identity,
			Title:     e.Title,
			Link:      e.Link,
			Content:   e.Content,
			Published: e.Published,
		})
	}

	return articles, dropped
}
