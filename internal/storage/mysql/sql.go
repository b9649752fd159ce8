package mysql

const insertSearchSQL = `
INSERT INTO searches
  (id, origin, destination, payload, created_at)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  payload    = VALUES(payload),
  created_at = VALUES(created_at)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getSearchSQL = `
SELECT id, origin, destination, payload, created_at
FROM searches
WHERE id = ?
`

// Newest first; matches idx_searches_created.
const listSearchesSQL = `
SELECT id, origin, destination, payload, created_at
FROM searches
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const latestForRouteSQL = `
SELECT id, origin, destination, payload, created_at
FROM searches
WHERE origin = ? AND destination = ?
ORDER BY created_at DESC, id DESC
LIMIT 1
`
