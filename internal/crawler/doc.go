// Package crawler defines the types, interfaces and error kinds shared by the
// job crawl pipeline: the normalized search profile, raw postings scraped from
// job boards, inferred company profiles and the ranked job records handed to
// storage and presentation collaborators.
package crawler
