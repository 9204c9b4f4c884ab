package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"careshare/internal/appointments"
	"careshare/internal/calls"
	"careshare/internal/conversations"
	"careshare/internal/seniors"
	"careshare/internal/volunteers"
	"careshare/pkg/utils"
)

const conversationColumns = `id, senior_id, caller_phone_number, request_details, matched_skill, nearby_volunteers,
	status, scheduled_appointment_id, created_at, updated_at`

func scanConversation(r rowScanner) (conversations.Conversation, error) {
	var (
		c      conversations.Conversation
		nearby []byte
	)
	err := r.Scan(&c.ID, &c.SeniorID, &c.CallerPhoneNumber, &c.RequestDetails, &c.MatchedSkill, &nearby,
		&c.Status, &c.ScheduledAppointmentID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	c.NearbyVolunteers = []volunteers.Candidate{}
	if len(nearby) > 0 {
		if err := json.Unmarshal(nearby, &c.NearbyVolunteers); err != nil {
			return c, fmt.Errorf("decode nearby volunteers: %w", err)
		}
	}
	return c, nil
}

const callColumns = `id, conversation_id, volunteer_id, outcome, notes, call_sid, role, created_at`

func scanCall(r rowScanner) (conversations.Call, error) {
	var c conversations.Call
	err := r.Scan(&c.ID, &c.ConversationID, &c.VolunteerID, &c.Outcome, &c.Notes, &c.CallSID, &c.Role, &c.CreatedAt)
	return c, err
}

func (s *Store) CreateConversation(ctx context.Context, nc conversations.NewConversation, senior *seniors.UpsertInput) (conversations.Conversation, *seniors.Senior, error) {
	nearby := nc.NearbyVolunteers
	if nearby == nil {
		nearby = []volunteers.Candidate{}
	}
	raw, err := json.Marshal(nearby)
	if err != nil {
		return conversations.Conversation{}, nil, err
	}

	var (
		conv    conversations.Conversation
		created *seniors.Senior
	)
	err = s.tx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if senior != nil {
			sr, err := upsertSenior(ctx, tx, *senior)
			if err != nil {
				return fmt.Errorf("upsert senior: %w", err)
			}
			created = &sr
			nc.SeniorID = &sr.ID
		}
		var err error
		conv, err = scanConversation(tx.QueryRowContext(ctx, `
			INSERT INTO inbound_conversations (senior_id, caller_phone_number, request_details, matched_skill, nearby_volunteers, status)
			VALUES ($1, $2, $3, $4, $5::jsonb, $6)
			RETURNING `+conversationColumns,
			nc.SeniorID, nc.CallerPhoneNumber, nc.RequestDetails, nc.MatchedSkill, string(raw), string(conversations.StatusOpen),
		))
		return err
	})
	if err != nil {
		return conversations.Conversation{}, nil, err
	}
	return conv, created, nil
}

func (s *Store) GetConversation(ctx context.Context, id int64) (conversations.Conversation, error) {
	c, err := scanConversation(s.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM inbound_conversations WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return conversations.Conversation{}, conversations.ErrNotFound
	}
	return c, err
}

func (s *Store) ListConversationCalls(ctx context.Context, conversationID int64) ([]conversations.Call, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+callColumns+` FROM conversation_calls WHERE conversation_id = $1 ORDER BY id DESC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list conversation calls: %w", err)
	}
	defer rows.Close()

	out := make([]conversations.Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListAcceptedVolunteers(ctx context.Context, conversationID int64) ([]conversations.AcceptedVolunteer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cc.volunteer_id, v.first_name, v.last_name, v.phone_number
		FROM conversation_calls cc
		JOIN volunteers v ON v.id = cc.volunteer_id
		WHERE cc.conversation_id = $1 AND cc.outcome = $2
		ORDER BY cc.id DESC`, conversationID, string(calls.OutcomeAccepted))
	if err != nil {
		return nil, fmt.Errorf("list accepted volunteers: %w", err)
	}
	defer rows.Close()

	out := make([]conversations.AcceptedVolunteer, 0)
	for rows.Next() {
		var a conversations.AcceptedVolunteer
		if err := rows.Scan(&a.VolunteerID, &a.FirstName, &a.LastName, &a.PhoneNumber); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) LogConversationCall(ctx context.Context, nc conversations.NewCall) (conversations.Call, error) {
	role := nc.Role
	if role == "" {
		role = calls.RoleVolunteer
	}
	var out conversations.Call
	err := s.tx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE inbound_conversations SET updated_at = NOW() WHERE id = $1`, nc.ConversationID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return conversations.ErrNotFound
		}
		out, err = scanCall(tx.QueryRowContext(ctx, `
			INSERT INTO conversation_calls (conversation_id, volunteer_id, outcome, notes, call_sid, role)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+callColumns,
			nc.ConversationID, nc.VolunteerID, string(nc.Outcome), nc.Notes, nc.CallSID, string(role),
		))
		return err
	})
	if err != nil {
		return conversations.Call{}, err
	}
	return out, nil
}

func (s *Store) SettleVolunteerCall(ctx context.Context, nc conversations.NewCall) (conversations.Call, bool, error) {
	var (
		out     conversations.Call
		settled bool
	)
	err := s.tx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE inbound_conversations SET updated_at = NOW() WHERE id = $1`, nc.ConversationID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return conversations.ErrNotFound
		}
		out, err = scanCall(tx.QueryRowContext(ctx, `
			UPDATE conversation_calls SET outcome = $3, notes = COALESCE($4, notes)
			WHERE id = (
				SELECT id FROM conversation_calls
				WHERE conversation_id = $1 AND volunteer_id = $2 AND role = 'VOLUNTEER' AND outcome = 'PENDING'
				ORDER BY id DESC LIMIT 1
				FOR UPDATE
			)
			RETURNING `+callColumns,
			nc.ConversationID, nc.VolunteerID, string(nc.Outcome), nc.Notes,
		))
		if err == nil {
			settled = true
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		out, err = scanCall(tx.QueryRowContext(ctx, `
			INSERT INTO conversation_calls (conversation_id, volunteer_id, outcome, notes, call_sid, role)
			VALUES ($1, $2, $3, $4, $5, 'VOLUNTEER')
			RETURNING `+callColumns,
			nc.ConversationID, nc.VolunteerID, string(nc.Outcome), nc.Notes, nc.CallSID,
		))
		return err
	})
	if err != nil {
		return conversations.Call{}, false, err
	}
	return out, settled, nil
}

func (s *Store) FindCallBySID(ctx context.Context, sid string) (conversations.Call, error) {
	return findCallBySID(ctx, s.db, sid)
}

func findCallBySID(ctx context.Context, q utils.Querier, sid string) (conversations.Call, error) {
	c, err := scanCall(q.QueryRowContext(ctx,
		`SELECT `+callColumns+` FROM conversation_calls WHERE call_sid = $1 ORDER BY id DESC LIMIT 1`, sid))
	if errors.Is(err, sql.ErrNoRows) {
		return conversations.Call{}, conversations.ErrCallNotFound
	}
	return c, err
}

func (s *Store) UpdateCallOutcomeBySID(ctx context.Context, sid string, from, to calls.Outcome) (conversations.Call, bool, error) {
	c, err := scanCall(s.db.QueryRowContext(ctx, `
		UPDATE conversation_calls SET outcome = $3
		WHERE id = (SELECT id FROM conversation_calls WHERE call_sid = $1 ORDER BY id DESC LIMIT 1)
		  AND outcome = $2
		RETURNING `+callColumns, sid, string(from), string(to)))
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return conversations.Call{}, false, err
	}
	c, err = findCallBySID(ctx, s.db, sid)
	if err != nil {
		return conversations.Call{}, false, err
	}
	return c, false, nil
}

func (s *Store) FinalizeConversation(ctx context.Context, conversationID int64, in appointments.NewAppointment) (appointments.Appointment, error) {
	var out appointments.Appointment
	err := s.tx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var status conversations.Status
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM inbound_conversations WHERE id = $1 FOR UPDATE`, conversationID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return conversations.ErrNotFound
		}
		if err != nil {
			return err
		}
		if status != conversations.StatusOpen {
			return conversations.ErrAlreadyScheduled
		}

		out, err = insertAppointment(ctx, tx, in)
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE inbound_conversations
			SET scheduled_appointment_id = $2, status = $3, updated_at = NOW()
			WHERE id = $1`, conversationID, out.ID, string(conversations.StatusScheduled))
		if err != nil {
			return fmt.Errorf("link appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return appointments.Appointment{}, err
	}
	return out, nil
}
