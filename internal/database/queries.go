/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const (
	schema = `
	-- Key-value table shared by every browsing context opening the same file
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		revision INTEGER NOT NULL,
		origin TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Change feed lookups
	CREATE INDEX IF NOT EXISTS idx_kv_revision ON kv(revision);
	`

	queryGetValue = `
		SELECT value FROM kv WHERE key = ?`

	// revision is global across keys so a single cursor covers the whole table
	queryUpsertValue = `
		INSERT INTO kv (key, value, revision, origin, updated_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(revision), 0) + 1 FROM kv), ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = excluded.revision,
			origin = excluded.origin,
			updated_at = excluded.updated_at`

	queryMaxRevision = `
		SELECT COALESCE(MAX(revision), 0) FROM kv`

	queryChangesSince = `
		SELECT key, value, revision, origin
		FROM kv
		WHERE revision > ?
		ORDER BY revision`
)
