// Package dedupe removes repeated stories, both across a single run's source
// lists and against the history of previous runs.
package dedupe

import "newsagent/internal/models"

// List is one source's batch of items, in the order the caller wants it
// considered. Earlier lists win ties: an item keeps the entry from the first
// list its URL appeared in.
type List struct {
	Name  string
	Items []models.NewsItem
}

// Dedupe filters the lists against history and against each other, keyed by
// URL only. Titles are never compared. It returns the filtered lists in the
// same order plus the set of URLs first seen in this run, which the caller
// persists to history.
func Dedupe(lists []List, history map[string]struct{}) ([]List, map[string]struct{}) {
	seen := make(map[string]struct{}, len(history))
	for url := range history {
		seen[url] = struct{}{}
	}

	out := make([]List, 0, len(lists))
	newlySeen := make(map[string]struct{})

	for _, list := range lists {
		kept := make([]models.NewsItem, 0, len(list.Items))
		for _, item := range list.Items {
			if item.URL == "" {
				continue
			}
			if _, ok := seen[item.URL]; ok {
				continue
			}
			seen[item.URL] = struct{}{}
			newlySeen[item.URL] = struct{}{}
			kept = append(kept, item)
		}
		out = append(out, List{Name: list.Name, Items: kept})
	}
	return out, newlySeen
}
