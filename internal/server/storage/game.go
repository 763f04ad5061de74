package storage

import (
	"database/sql"
	"fmt"
)

// RecordNewGame asynchronously records a new game
func (s *Store) RecordNewGame(record GameRecord) {
	s.enqueue("game", func(tx *sql.Tx) error {
		result := record.Result
		if result == "" {
			result = "*"
		}
		_, err := tx.Exec(`INSERT OR IGNORE INTO games (
			game_id, initial_fen, mode, difficulty, computer_color, result, start_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.GameID, record.InitialFEN, record.Mode, record.Difficulty,
			record.ComputerColor, result, record.StartTimeUTC,
		)
		return err
	})
}

// RecordMove asynchronously records a move
func (s *Store) RecordMove(record MoveRecord) {
	s.enqueue("move", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO moves (
			game_id, move_number, move_uci, move_san, fen_after_move, player_color, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.GameID, record.MoveNumber, record.MoveUCI, record.MoveSAN,
			record.FENAfterMove, record.PlayerColor, record.MoveTimeUTC,
		)
		return err
	})
}

// RecordResult asynchronously sets the final result of a game
func (s *Store) RecordResult(gameID, result string) {
	s.enqueue("result", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE games SET result = ? WHERE game_id = ?`, result, gameID)
		return err
	})
}

// QueryGames retrieves games, newest first. An empty or "*" gameID matches
// every game; limit <= 0 means no limit.
func (s *Store) QueryGames(gameID string, limit int) ([]GameRecord, error) {
	query := `SELECT game_id, initial_fen, mode, difficulty, computer_color, result, start_time_utc
	FROM games WHERE 1=1`

	var args []any
	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}
	query += " ORDER BY start_time_utc DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		if err := rows.Scan(&g.GameID, &g.InitialFEN, &g.Mode, &g.Difficulty,
			&g.ComputerColor, &g.Result, &g.StartTimeUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return games, nil
}

// QueryMoves retrieves the moves of one game in play order
func (s *Store) QueryMoves(gameID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(`SELECT move_id, game_id, move_number, move_uci, move_san,
		fen_after_move, player_color, move_time_utc
	FROM moves WHERE game_id = ? ORDER BY move_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(&m.MoveID, &m.GameID, &m.MoveNumber, &m.MoveUCI, &m.MoveSAN,
			&m.FENAfterMove, &m.PlayerColor, &m.MoveTimeUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return moves, nil
}
