package db

import (
	"context"
)

const createRun = `
INSERT INTO runs (startedat, finishedat, notified, dryrun)
VALUES (?, ?, ?, ?)
`

type CreateRunParams struct {
	Startedat  int64
	Finishedat int64
	Notified   bool
	Dryrun     bool
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createRun,
		arg.Startedat, arg.Finishedat, arg.Notified, arg.Dryrun)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const createRunEntity = `
INSERT INTO run_entities (runid, entity, newcount, updatedcount, initialized, skipped, error)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateRunEntityParams struct {
	Runid        int64
	Entity       string
	Newcount     int64
	Updatedcount int64
	Initialized  bool
	Skipped      bool
	Error        string
}

func (q *Queries) CreateRunEntity(ctx context.Context, arg CreateRunEntityParams) error {
	_, err := q.db.ExecContext(ctx, createRunEntity,
		arg.Runid, arg.Entity, arg.Newcount, arg.Updatedcount,
		arg.Initialized, arg.Skipped, arg.Error)
	return err
}

const getRecentRuns = `
SELECT id, startedat, finishedat, notified, dryrun
FROM runs
ORDER BY startedat DESC
LIMIT ?
`

type Run struct {
	ID         int64
	Startedat  int64
	Finishedat int64
	Notified   bool
	Dryrun     bool
}

func (q *Queries) GetRecentRuns(ctx context.Context, limit int64) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, getRecentRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		err := rows.Scan(&r.ID, &r.Startedat, &r.Finishedat, &r.Notified, &r.Dryrun)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getRunEntities = `
SELECT runid, entity, newcount, updatedcount, initialized, skipped, error
FROM run_entities
WHERE runid = ?
ORDER BY entity
`

type RunEntity struct {
	Runid        int64
	Entity       string
	Newcount     int64
	Updatedcount int64
	Initialized  bool
	Skipped      bool
	Error        string
}

func (q *Queries) GetRunEntities(ctx context.Context, runid int64) ([]RunEntity, error) {
	rows, err := q.db.QueryContext(ctx, getRunEntities, runid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunEntity
	for rows.Next() {
		var r RunEntity
		err := rows.Scan(&r.Runid, &r.Entity, &r.Newcount, &r.Updatedcount,
			&r.Initialized, &r.Skipped, &r.Error)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
