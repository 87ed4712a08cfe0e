// Package tracker orchestrates a tracking run: for every configured
// site it fetches the product page, extracts title and price, and
// collects the results into a run summary. Site failures are isolated;
// one unreachable shop never blocks the others.
package tracker
