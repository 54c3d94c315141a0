// Package audit scores the content quality of resolved product pages
// against a fixed per-role rubric. The engine fetches live page text
// through a ContentFetcher and asks the generation service to assess each
// rubric field strictly from that text; when no content can be fetched the
// result is marked blocked and carries no scores at all. Generated memory
// is never substituted for unseen content.
package audit
