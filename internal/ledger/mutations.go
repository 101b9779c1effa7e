package ledger

import (
	"context"
	"log/slog"

	"aidat/internal/core"
	"aidat/internal/notify"
	"aidat/internal/session"
	"aidat/internal/store"
)

// User-facing outcome messages. Every completed operation pushes exactly
// one notification; rejected duplicates of an in-flight operation push
// none, they are simply ignored.
const (
	msgLoginOK       = "Signed in successfully. Welcome!"
	msgLoginFailed   = "Username or password is incorrect!"
	msgLogout        = "Signed out successfully."
	msgAdminRequired = "You must be signed in as administrator!"
	msgAddOK         = "Transaction added successfully!"
	msgAddFailed     = "Failed to add transaction!"
	msgUpdateOK      = "Transaction updated successfully!"
	msgUpdateFailed  = "Failed to update transaction!"
	msgDeleteOK      = "Transaction deleted successfully!"
	msgDeleteFailed  = "Failed to delete transaction!"
	msgDeleteConfirm = "Are you sure you want to delete this transaction? This cannot be undone."
	msgNotFound      = "Transaction not found!"
)

// Login authenticates and reports the outcome as a notification.
func (l *Ledger) Login(username, password string) Outcome {
	s, err := l.sessions.Login(username, password)
	if err != nil {
		l.notes.Push(msgLoginFailed, notify.Error)
		return Outcome{Message: msgLoginFailed, Err: err}
	}

	l.mu.Lock()
	if l.overlay == OverlayLogin {
		l.overlay = OverlayNone
	}
	l.mu.Unlock()

	l.notes.Push(msgLoginOK, notify.Success)
	slog.Info("Administrator signed in", "actor", s.Name)
	return Outcome{OK: true, Message: msgLoginOK}
}

// Logout ends the session. The session manager's logout hook resets all
// admin form state, so open add/edit dialogs and parked delete
// confirmations disappear with the session.
func (l *Ledger) Logout() Outcome {
	l.sessions.Logout()
	l.notes.Push(msgLogout, notify.Info)
	return Outcome{OK: true, Message: msgLogout}
}

// requireAdmin gates every mutation. The outcome doubles as the single
// notification for the rejected attempt.
func (l *Ledger) requireAdmin() (Outcome, bool) {
	if l.sessions.IsAdmin() {
		return Outcome{}, true
	}
	l.notes.Push(msgAdminRequired, notify.Error)
	return Outcome{Message: msgAdminRequired, Err: session.ErrNotAuthenticated}, false
}

// OpenAdd opens the add dialog with whatever draft is currently held,
// replacing any other overlay.
func (l *Ledger) OpenAdd() Outcome {
	if out, ok := l.requireAdmin(); !ok {
		return out
	}
	l.mu.Lock()
	l.overlay = OverlayAdd
	l.mu.Unlock()
	return Outcome{OK: true}
}

// OpenEdit opens the edit dialog pre-populated from the stored record. A
// second edit cannot start while an update round trip is outstanding.
func (l *Ledger) OpenEdit(id string) Outcome {
	if out, ok := l.requireAdmin(); !ok {
		return out
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.editingID != "" {
		return Outcome{Message: "an update is already in progress"}
	}
	t, ok := l.findLocked(id)
	if !ok {
		l.notes.Push(msgNotFound, notify.Error)
		return Outcome{Message: msgNotFound, Err: store.ErrNotFound}
	}
	l.overlay = OverlayEdit
	l.editID = id
	l.editDraft = core.DraftOf(t)
	return Outcome{OK: true}
}

// UpdateAddDraft keeps the user's in-progress input so a failed submit
// never loses it.
func (l *Ledger) UpdateAddDraft(d core.Draft) {
	l.mu.Lock()
	l.addDraft = d
	l.mu.Unlock()
}

// UpdateEditDraft keeps the in-progress edit input.
func (l *Ledger) UpdateEditDraft(d core.Draft) {
	l.mu.Lock()
	l.editDraft = d
	l.mu.Unlock()
}

// OpenLogin shows the login dialog.
func (l *Ledger) OpenLogin() {
	l.mu.Lock()
	l.overlay = OverlayLogin
	l.mu.Unlock()
}

// OpenAccount shows the account dialog for the signed-in admin.
func (l *Ledger) OpenAccount() Outcome {
	if out, ok := l.requireAdmin(); !ok {
		return out
	}
	l.mu.Lock()
	l.overlay = OverlayAccount
	l.mu.Unlock()
	return Outcome{OK: true}
}

// CloseOverlay dismisses whatever dialog is open. Edit state is dropped
// with its dialog; the add draft survives so a half-typed entry can be
// resumed.
func (l *Ledger) CloseOverlay() {
	l.mu.Lock()
	if l.overlay == OverlayEdit {
		l.editID = ""
		l.editDraft = core.Draft{}
	}
	l.overlay = OverlayNone
	l.mu.Unlock()
}

// SubmitNew validates the draft and creates the record. Validation
// failures never reach the store. Only one add may be in flight; further
// submissions while it is pending are ignored without a notification.
func (l *Ledger) SubmitNew(ctx context.Context, draft core.Draft) Outcome {
	if out, ok := l.requireAdmin(); !ok {
		return out
	}

	l.mu.Lock()
	l.addDraft = draft
	rec, err := draft.Build(l.now())
	if err != nil {
		l.mu.Unlock()
		l.notes.Push(validationMessage(err), notify.Warning)
		return Outcome{Message: validationMessage(err), Err: err}
	}
	if l.adding {
		l.mu.Unlock()
		return Outcome{Message: "an add is already in progress"}
	}
	l.adding = true
	l.mu.Unlock()

	id, err := l.store.Create(ctx, rec, l.sessions.Actor())

	l.mu.Lock()
	l.adding = false
	if err == nil {
		l.addDraft = core.DefaultDraft(l.now())
		if l.overlay == OverlayAdd {
			l.overlay = OverlayNone
		}
	}
	l.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Create transaction failed", "error", err)
		l.notes.Push(msgAddFailed, notify.Error)
		return Outcome{Message: msgAddFailed, Err: err}
	}

	slog.InfoContext(ctx, "Transaction created", "transaction_id", id)
	l.notes.Push(msgAddOK, notify.Success)
	return Outcome{OK: true, Message: msgAddOK}
}

// SubmitEdit validates the draft and updates the record. At most one
// update round trip may be outstanding; a failed update keeps the dialog
// open with the draft intact.
func (l *Ledger) SubmitEdit(ctx context.Context, id string, draft core.Draft) Outcome {
	if out, ok := l.requireAdmin(); !ok {
		return out
	}

	l.mu.Lock()
	l.editID = id
	l.editDraft = draft
	rec, err := draft.Build(l.now())
	if err != nil {
		l.mu.Unlock()
		l.notes.Push(validationMessage(err), notify.Warning)
		return Outcome{Message: validationMessage(err), Err: err}
	}
	if l.editingID != "" {
		l.mu.Unlock()
		return Outcome{Message: "an update is already in progress"}
	}
	l.editingID = id
	l.mu.Unlock()

	err = l.store.Update(ctx, id, rec, l.sessions.Actor())

	l.mu.Lock()
	l.editingID = ""
	if err == nil {
		l.editID = ""
		l.editDraft = core.Draft{}
		if l.overlay == OverlayEdit {
			l.overlay = OverlayNone
		}
	}
	l.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Update transaction failed", "transaction_id", id, "error", err)
		l.notes.Push(msgUpdateFailed, notify.Error)
		return Outcome{Message: msgUpdateFailed, Err: err}
	}

	slog.InfoContext(ctx, "Transaction updated", "transaction_id", id)
	l.notes.Push(msgUpdateOK, notify.Success)
	return Outcome{OK: true, Message: msgUpdateOK}
}

// RequestDelete parks a delete behind an explicit confirmation. Nothing
// is sent to the store yet.
func (l *Ledger) RequestDelete(id string) Outcome {
	if out, ok := l.requireAdmin(); !ok {
		return out
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.deleting[id] {
		return Outcome{Message: "delete already in progress"}
	}
	if _, ok := l.findLocked(id); !ok {
		l.notes.Push(msgNotFound, notify.Error)
		return Outcome{Message: msgNotFound, Err: store.ErrNotFound}
	}
	l.confirmable[id] = true
	return Outcome{OK: true, Message: msgDeleteConfirm}
}

// CancelDelete drops a parked confirmation. The record is untouched and
// no notification is produced: nothing happened.
func (l *Ledger) CancelDelete(id string) {
	l.mu.Lock()
	delete(l.confirmable, id)
	l.mu.Unlock()
}

// ConfirmDelete performs a previously requested delete. Deletes on
// distinct ids may overlap; a second confirm for the same id while one is
// in flight is ignored. A failed delete leaves the record in place.
func (l *Ledger) ConfirmDelete(ctx context.Context, id string) Outcome {
	if out, ok := l.requireAdmin(); !ok {
		return out
	}

	l.mu.Lock()
	if !l.confirmable[id] {
		l.mu.Unlock()
		return Outcome{Message: "no delete awaiting confirmation"}
	}
	delete(l.confirmable, id)
	if l.deleting[id] {
		l.mu.Unlock()
		return Outcome{Message: "delete already in progress"}
	}
	l.deleting[id] = true
	l.mu.Unlock()

	err := l.store.Delete(ctx, id)

	l.mu.Lock()
	delete(l.deleting, id)
	l.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Delete transaction failed", "transaction_id", id, "error", err)
		l.notes.Push(msgDeleteFailed, notify.Error)
		return Outcome{Message: msgDeleteFailed, Err: err}
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	l.notes.Push(msgDeleteOK, notify.Success)
	return Outcome{OK: true, Message: msgDeleteOK}
}

// validationMessage maps a draft validation error to the warning shown to
// the user.
func validationMessage(err error) string {
	switch err {
	case core.ErrEmptyAmount, core.ErrEmptyDescription:
		return "Please fill in all required fields!"
	case core.ErrInvalidAmount:
		return "Amount must be a non-negative number!"
	case core.ErrInvalidDate:
		return "Date must be a valid calendar date!"
	case core.ErrInvalidType:
		return "Transaction type must be income or expense!"
	default:
		return "Please check the form and try again!"
	}
}
