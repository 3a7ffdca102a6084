// Package notifications delivers fire-and-forget case and hearing events to
// the affected parties over email and websocket push. Delivery failures are
// logged and never propagate into the triggering operation.
package notifications

import (
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	templates "github.com/rentcontroldept/rcd-api/templates/html"
)

// Notifier is the contract the case and hearing operations call after a
// successful write
type Notifier interface {
	CaseStatusChanged(caseID, caseNumber, oldStatus, newStatus string, recipients []Recipient)
	CaseAssigned(caseID, caseNumber, officerName, mediatorName string, recipients []Recipient)
	HearingScheduled(hearingID, hearingNumber, caseNumber, date, startTime string, recipients []Recipient)
	HearingCancelled(hearingID, hearingNumber, reason string, recipients []Recipient)
}

// Recipient identifies one delivery target
type Recipient struct {
	UserID string
	Name   string
	Email  string
}

// Service sends events over the websocket hub and, when configured, email
type Service struct {
	Hub            *Hub
	SendgridAPIKey string
	FromEmail      string
}

// NewService creates a notifier backed by the hub and sendgrid
func NewService(hub *Hub, sendgridAPIKey string) *Service {
	return &Service{
		Hub:            hub,
		SendgridAPIKey: sendgridAPIKey,
		FromEmail:      "no-reply@rentcontroldept.gov",
	}
}

// CaseStatusChanged notifies the parties that a case moved between statuses
func (s *Service) CaseStatusChanged(caseID, caseNumber, oldStatus, newStatus string, recipients []Recipient) {
	data := map[string]interface{}{
		"caseID":     caseID,
		"caseNumber": caseNumber,
		"oldStatus":  oldStatus,
		"newStatus":  newStatus,
	}
	s.deliver("case_status_changed", data, recipients,
		"Case "+caseNumber+" status update",
		"Your case "+caseNumber+" has moved from "+oldStatus+" to "+newStatus+".")
}

// CaseAssigned notifies the parties that staff were assigned to a case
func (s *Service) CaseAssigned(caseID, caseNumber, officerName, mediatorName string, recipients []Recipient) {
	data := map[string]interface{}{
		"caseID":       caseID,
		"caseNumber":   caseNumber,
		"officerName":  officerName,
		"mediatorName": mediatorName,
	}
	body := "Your case " + caseNumber + " has been assigned for review."
	if officerName != "" {
		body += " Officer: " + officerName + "."
	}
	if mediatorName != "" {
		body += " Mediator: " + mediatorName + "."
	}
	s.deliver("case_assigned", data, recipients, "Case "+caseNumber+" assigned", body)
}

// HearingScheduled notifies the parties of a new hearing
func (s *Service) HearingScheduled(hearingID, hearingNumber, caseNumber, date, startTime string, recipients []Recipient) {
	data := map[string]interface{}{
		"hearingID":     hearingID,
		"hearingNumber": hearingNumber,
		"caseNumber":    caseNumber,
		"date":          date,
		"startTime":     startTime,
	}
	s.deliver("hearing_scheduled", data, recipients,
		"Hearing scheduled for case "+caseNumber,
		"Hearing "+hearingNumber+" for case "+caseNumber+" is scheduled on "+date+" at "+startTime+".")
}

// HearingCancelled notifies the parties a hearing was cancelled
func (s *Service) HearingCancelled(hearingID, hearingNumber, reason string, recipients []Recipient) {
	data := map[string]interface{}{
		"hearingID":     hearingID,
		"hearingNumber": hearingNumber,
		"reason":        reason,
	}
	s.deliver("hearing_cancelled", data, recipients,
		"Hearing "+hearingNumber+" cancelled",
		"Hearing "+hearingNumber+" has been cancelled. Reason: "+reason)
}

func (s *Service) deliver(event string, data map[string]interface{}, recipients []Recipient, subject, plainText string) {
	userIDs := make([]string, 0, len(recipients))
	for _, rec := range recipients {
		userIDs = append(userIDs, rec.UserID)
	}
	s.Hub.SendToUsers(userIDs, event, data)

	if s.SendgridAPIKey == "" {
		return
	}
	for _, rec := range recipients {
		if rec.Email == "" {
			continue
		}
		go s.sendEmail(rec, subject, plainText)
	}
}

func (s *Service) sendEmail(rec Recipient, subject, plainText string) {
	from := mail.NewEmail("Rent Control Department", s.FromEmail)
	to := mail.NewEmail(rec.Name, rec.Email)
	message := mail.NewSingleEmail(from, subject, to, plainText, templates.RenderGenericEmail(subject, plainText))
	client := sendgrid.NewSendClient(s.SendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send notification email", "to", rec.Email, "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
}

// Noop discards every notification; used by tests and when delivery is not
// configured
type Noop struct{}

func (Noop) CaseStatusChanged(caseID, caseNumber, oldStatus, newStatus string, recipients []Recipient) {
}
func (Noop) CaseAssigned(caseID, caseNumber, officerName, mediatorName string, recipients []Recipient) {
}
func (Noop) HearingScheduled(hearingID, hearingNumber, caseNumber, date, startTime string, recipients []Recipient) {
}
func (Noop) HearingCancelled(hearingID, hearingNumber, reason string, recipients []Recipient) {}
