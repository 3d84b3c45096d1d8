// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hdiggity/harlanswitzer.com/common"
	"github.com/hdiggity/harlanswitzer.com/traffic"

	"github.com/go-sql-driver/mysql"
)

/*

CREATE TABLE requests (
	id INT NOT NULL auto_increment,
	ts INT NOT NULL,
	host VARCHAR(255),
	path VARCHAR(1024) NOT NULL,
	method VARCHAR(15) NOT NULL,
	status SMALLINT NOT NULL,
	country VARCHAR(7),
	asn VARCHAR(15),
	colo VARCHAR(7),
	user_agent VARCHAR(512),
	referer VARCHAR(1024),
	ray VARCHAR(64),
	bot_score TINYINT,
	verified_bot TINYINT NOT NULL DEFAULT 0,
	ip_hash VARCHAR(64),
	INDEX ts_verified_bot_idx (ts, verified_bot),
	PRIMARY KEY (id)
);

CREATE TABLE events (
	id INT NOT NULL auto_increment,
	ts INT NOT NULL,
	vid VARCHAR(64),
	sid VARCHAR(64),
	type VARCHAR(31),
	path VARCHAR(1024),
	data TEXT,
	user_agent VARCHAR(512),
	referer VARCHAR(1024),
	bot_score TINYINT,
	verified_bot TINYINT NOT NULL DEFAULT 0,
	ip_hash VARCHAR(64),
	INDEX ts_type_idx (ts, type),
	PRIMARY KEY (id)
);

*/

func string2NullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{
		String: s,
		Valid:  true,
	}
}

func intPtr2NullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{
		Int64: int64(*v),
		Valid: true,
	}
}

// LogRecord is one raw request observation as written by the request
// logging middleware.
type LogRecord struct {
	TS          int64
	Host        string
	Path        string
	Method      string
	Status      int
	Country     string
	ASN         string
	Colo        string
	UserAgent   string
	Referer     string
	Ray         string
	BotScore    *int
	VerifiedBot bool
	IPHash      string
}

// EventRecord is one client-side behavioral event as written by the
// collect endpoint.
type EventRecord struct {
	TS          int64
	VID         string
	SID         string
	Type        string
	Path        string
	Data        string
	UserAgent   string
	Referer     string
	BotScore    *int
	VerifiedBot bool
	IPHash      string
}

// RecentRequest is a raw log row for the operator's requests tab; it is
// presentation only and takes no part in scoring.
type RecentRequest struct {
	TS          int64  `json:"ts"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	Country     string `json:"country"`
	BotScore    *int   `json:"bot_score"`
	VerifiedBot bool   `json:"verified_bot"`
	Referer     string `json:"referer"`
}

type MySQLAdapter struct {
	conn *sql.DB
}

// LoadWindowRequests fetches up to traffic.RequestCap non-verified-bot
// observations since fromTS, time-ascending. The second return value
// reports whether the cap was hit (i.e. the window view is incomplete).
func (c *MySQLAdapter) LoadWindowRequests(fromTS int64) ([]traffic.Request, bool, error) {
	rows, err := c.conn.Query(
		`SELECT ts, ip_hash, user_agent, path, method, status, bot_score, verified_bot, referer, country
		FROM requests
		WHERE ts > ? AND verified_bot = 0
		ORDER BY ts ASC
		LIMIT ?`, fromTS, traffic.RequestCap)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load window requests: %w", err)
	}
	defer rows.Close()
	ans := make([]traffic.Request, 0, 1000)
	for rows.Next() {
		var item traffic.Request
		var ipHash, userAgent, referer, country sql.NullString
		var botScore sql.NullInt64
		var verifiedBot int
		err := rows.Scan(
			&item.TS, &ipHash, &userAgent, &item.Path, &item.Method,
			&item.Status, &botScore, &verifiedBot, &referer, &country,
		)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load window requests: %w", err)
		}
		item.Visitor = common.VisitorKey{IPHash: ipHash.String, UserAgent: userAgent.String}
		if botScore.Valid {
			tmp := int(botScore.Int64)
			item.BotScore = &tmp
		}
		item.VerifiedBot = verifiedBot == 1
		item.Referer = referer.String
		item.Country = country.String
		ans = append(ans, item)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to load window requests: %w", err)
	}
	return ans, len(ans) == traffic.RequestCap, nil
}

// LoadVerifiedBotAggregates pre-aggregates verified-bot traffic directly in
// SQL so allow-listed bots never pass through the scorer. Sessionization
// uses a LAG window over (ip_hash, user_agent) with the same inactivity
// rule the in-process grouper applies; countries are counted once per
// session start so chatty bots do not dominate the breakdown.
func (c *MySQLAdapter) LoadVerifiedBotAggregates(fromTS int64) (traffic.BotAggregates, error) {
	var ans traffic.BotAggregates
	row := c.conn.QueryRow(fmt.Sprintf(
		`WITH s AS (
			SELECT
				CONCAT(ip_hash, '|', user_agent) AS vk,
				ts, method, path,
				LAG(ts) OVER (PARTITION BY ip_hash, user_agent ORDER BY ts) AS prev_ts
			FROM requests
			WHERE ts > ? AND verified_bot = 1
		)
		SELECT
			COUNT(DISTINCT vk) AS visitors,
			COALESCE(SUM(CASE WHEN prev_ts IS NULL OR ts - prev_ts > %d THEN 1 ELSE 0 END), 0) AS sessions,
			COALESCE(SUM(CASE WHEN method = 'GET' AND (path = '/' OR path LIKE '%%.html') THEN 1 ELSE 0 END), 0) AS pageviews,
			COUNT(*) AS requests
		FROM s`, traffic.SessionGapSecs),
		fromTS,
	)
	err := row.Scan(&ans.Totals.Visitors, &ans.Totals.Sessions, &ans.Totals.Pageviews, &ans.Totals.Requests)
	if err != nil {
		return ans, fmt.Errorf("failed to load verified bot aggregates: %w", err)
	}

	countryRows, err := c.conn.Query(fmt.Sprintf(
		`WITH s AS (
			SELECT country, ts,
				LAG(ts) OVER (PARTITION BY ip_hash, user_agent ORDER BY ts) AS prev_ts
			FROM requests
			WHERE ts > ? AND verified_bot = 1 AND country IS NOT NULL
		)
		SELECT country, COUNT(*) AS cnt
		FROM s
		WHERE prev_ts IS NULL OR ts - prev_ts > %d
		GROUP BY country
		ORDER BY cnt DESC
		LIMIT 20`, traffic.SessionGapSecs),
		fromTS,
	)
	if err != nil {
		return ans, fmt.Errorf("failed to load verified bot aggregates: %w", err)
	}
	defer countryRows.Close()
	for countryRows.Next() {
		var item traffic.CountryCount
		if err := countryRows.Scan(&item.Country, &item.Count); err != nil {
			return ans, fmt.Errorf("failed to load verified bot aggregates: %w", err)
		}
		ans.Countries = append(ans.Countries, item)
	}
	if err := countryRows.Err(); err != nil {
		return ans, fmt.Errorf("failed to load verified bot aggregates: %w", err)
	}

	agentRows, err := c.conn.Query(
		`SELECT user_agent, COUNT(DISTINCT CONCAT(ip_hash, '|', user_agent)) AS cnt
		FROM requests
		WHERE ts > ? AND verified_bot = 1 AND user_agent IS NOT NULL
		GROUP BY user_agent
		ORDER BY cnt DESC
		LIMIT 10`,
		fromTS,
	)
	if err != nil {
		return ans, fmt.Errorf("failed to load verified bot aggregates: %w", err)
	}
	defer agentRows.Close()
	for agentRows.Next() {
		var item traffic.AgentCount
		if err := agentRows.Scan(&item.Agent, &item.Count); err != nil {
			return ans, fmt.Errorf("failed to load verified bot aggregates: %w", err)
		}
		ans.Agents = append(ans.Agents, item)
	}
	if err := agentRows.Err(); err != nil {
		return ans, fmt.Errorf("failed to load verified bot aggregates: %w", err)
	}
	return ans, nil
}

// LoadWindowEvents fetches the behavioral events relevant to the
// interactivity and performance signals.
func (c *MySQLAdapter) LoadWindowEvents(fromTS int64) ([]traffic.Event, error) {
	rows, err := c.conn.Query(
		`SELECT ts, ip_hash, user_agent, type
		FROM events
		WHERE ts > ? AND type IN ('click', 'scroll', 'performance', 'navigation', 'pageview')
		ORDER BY ts ASC`,
		fromTS,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load window events: %w", err)
	}
	defer rows.Close()
	ans := make([]traffic.Event, 0, 100)
	for rows.Next() {
		var item traffic.Event
		var ipHash, userAgent, evType sql.NullString
		if err := rows.Scan(&item.TS, &ipHash, &userAgent, &evType); err != nil {
			return nil, fmt.Errorf("failed to load window events: %w", err)
		}
		item.Visitor = common.VisitorKey{IPHash: ipHash.String, UserAgent: userAgent.String}
		item.Type = evType.String
		ans = append(ans, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load window events: %w", err)
	}
	return ans, nil
}

// LoadRecentRequests fetches the newest raw log rows (verified bots
// included) for the requests tab.
func (c *MySQLAdapter) LoadRecentRequests(fromTS int64, limit int) ([]RecentRequest, error) {
	rows, err := c.conn.Query(
		`SELECT ts, method, path, status, country, bot_score, verified_bot, referer
		FROM requests
		WHERE ts > ?
		ORDER BY ts DESC
		LIMIT ?`,
		fromTS, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent requests: %w", err)
	}
	defer rows.Close()
	ans := make([]RecentRequest, 0, limit)
	for rows.Next() {
		var item RecentRequest
		var country, referer sql.NullString
		var botScore sql.NullInt64
		var verifiedBot int
		err := rows.Scan(
			&item.TS, &item.Method, &item.Path, &item.Status,
			&country, &botScore, &verifiedBot, &referer,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load recent requests: %w", err)
		}
		item.Country = country.String
		item.Referer = referer.String
		if botScore.Valid {
			tmp := int(botScore.Int64)
			item.BotScore = &tmp
		}
		item.VerifiedBot = verifiedBot == 1
		ans = append(ans, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load recent requests: %w", err)
	}
	return ans, nil
}

func (c *MySQLAdapter) InsertRequest(rec *LogRecord) error {
	_, err := c.conn.Exec(
		`INSERT INTO requests (ts, host, path, method, status, country, asn, colo,
			user_agent, referer, ray, bot_score, verified_bot, ip_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TS, string2NullString(rec.Host), rec.Path, rec.Method, rec.Status,
		string2NullString(rec.Country), string2NullString(rec.ASN), string2NullString(rec.Colo),
		string2NullString(rec.UserAgent), string2NullString(rec.Referer), string2NullString(rec.Ray),
		intPtr2NullInt(rec.BotScore), rec.VerifiedBot, string2NullString(rec.IPHash),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request record: %w", err)
	}
	return nil
}

// InsertEvents writes a collect batch in a single transaction - either the
// whole batch lands or nothing does.
func (c *MySQLAdapter) InsertEvents(recs []EventRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := c.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to insert events: %w", err)
	}
	for _, rec := range recs {
		_, err := tx.Exec(
			`INSERT INTO events (ts, vid, sid, type, path, data, user_agent, referer,
				bot_score, verified_bot, ip_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.TS, string2NullString(rec.VID), string2NullString(rec.SID),
			string2NullString(rec.Type), string2NullString(rec.Path), string2NullString(rec.Data),
			string2NullString(rec.UserAgent), string2NullString(rec.Referer),
			intPtr2NullInt(rec.BotScore), rec.VerifiedBot, string2NullString(rec.IPHash),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert events: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to insert events: %w", err)
	}
	return nil
}

func (c *MySQLAdapter) getNumAffected(tx *sql.Tx) (int, error) {
	qAns := tx.QueryRow("SELECT ROW_COUNT()")
	var numDel int
	scanErr := qAns.Scan(&numDel)
	if qAns.Err() != nil {
		return -1, qAns.Err()
	}
	if scanErr != nil {
		return -1, scanErr
	}
	return numDel, nil
}

// CleanOldData removes raw log rows older than maxAgeDays from both tables.
func (c *MySQLAdapter) CleanOldData(maxAgeDays int) DataCleanupResult {
	ans := DataCleanupResult{}
	tx, err := c.conn.Begin()
	if err != nil {
		ans.Error = err
		return ans
	}
	threshold := time.Now().AddDate(0, 0, -maxAgeDays).Unix()

	_, err = tx.Exec("DELETE FROM requests WHERE ts < ?", threshold)
	if err != nil {
		tx.Rollback()
		ans.Error = err
		return ans
	}
	numDel1, err := c.getNumAffected(tx)
	if err != nil {
		ans.Error = err
		return ans
	}
	ans.NumDeletedRequests = numDel1

	_, err = tx.Exec("DELETE FROM events WHERE ts < ?", threshold)
	if err != nil {
		tx.Rollback()
		ans.Error = err
		return ans
	}
	numDel2, err := c.getNumAffected(tx)
	if err != nil {
		ans.Error = err
		return ans
	}
	ans.NumDeletedEvents = numDel2

	err = tx.Commit()
	ans.Error = err
	return ans
}

func NewMySQLAdapter(conf *Conf) (*MySQLAdapter, error) {
	mconf := mysql.NewConfig()
	mconf.Net = "tcp"
	mconf.Addr = conf.Host
	mconf.User = conf.User
	mconf.Passwd = conf.Password
	mconf.DBName = conf.Database
	mconf.ParseTime = true
	mconf.Loc = time.Local
	db, err := sql.Open("mysql", mconf.FormatDSN())
	if err != nil {
		return nil, err
	}
	return &MySQLAdapter{conn: db}, nil
}
