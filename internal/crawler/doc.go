/*
Package crawler keeps the portfolio store in sync with GitHub.

1. Modes

  - refresh: re-fetch stored records whose lastFetched is older than
    sync.refreshintervaldays. Records are never added or removed.
  - readme: follow the "## Portfolios" list of sync.readmefile. New entries
    are created and fetched, entries whose link changed are fetched again,
    records no longer listed are pruned. With sync.rewritereadme the list is
    regenerated from the final record set.

2. Run

LOAD the store (a missing file is an empty store, an unparseable one stops the
run), SELECT the working set, FETCH it in batches of sync.batchsize with one
aliased GraphQL query per batch, MERGE the answers and PERSIST the sorted set.
The throttle is asked before every batch, so batches are strictly sequential.

3. Merge policy

  - A user the API answered for gets new name, followers and stars,
    popularity = followers + stars and lastFetched = now.
  - A user the API did not answer for (unknown login, deleted account, failed
    batch) keeps its previous values, lastFetched included, and is logged as
    missing. It stays in the store.
  - A rejected token (401) stops the run before anything is written. Other
    batch failures are logged and the run goes on; nothing is retried.
*/
package crawler
