package mysql

const insertRunSQL = `
INSERT INTO ingest_runs (started_at, status)
VALUES (?, 'running')
`

const finishRunSQL = `
UPDATE ingest_runs
SET finished_at = ?, row_count = ?, status = ?, error = ?
WHERE id = ?
`

const insertReviewsPrefix = "INSERT INTO reviews\n  (run_id, seq, product_id, user_id, reviewed_at, score, sentiment, behavior)\nVALUES "

// Rewriting the same position of the same run is idempotent.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  product_id  = VALUES(product_id),\n" +
	"  user_id     = VALUES(user_id),\n" +
	"  reviewed_at = VALUES(reviewed_at),\n" +
	"  score       = VALUES(score),\n" +
	"  sentiment   = VALUES(sentiment),\n" +
	"  behavior    = VALUES(behavior)\n"

// published run: drop the rows of every older run
const deleteOlderRunsSQL = `DELETE FROM reviews WHERE run_id < ?`

// failed run: drop its partial rows
const deleteRunSQL = `DELETE FROM reviews WHERE run_id = ?`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Reads the latest successful run; no such run yields no rows.
const selectReviewsSQL = `
SELECT product_id, user_id, reviewed_at, score, sentiment, behavior
FROM reviews
WHERE run_id = (SELECT MAX(id) FROM ingest_runs WHERE status = 'ok')
ORDER BY seq
`
