package recurring

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/internal/pkg/mail"
	"github.com/nordkorb/nordkorb/internal/pkg/security"
)

// ConfirmURL returns the signed confirm link for a proposal.
func (s *Service) ConfirmURL(proposal *models.PendingProposal) (string, error) {
	token, err := security.GenerateProposalToken(proposal.ID, security.PurposeConfirm, s.secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/pending-proposals/%s/confirm?token=%s", s.baseURL, proposal.UUID, token), nil
}

// EditURL returns the signed edit link for a proposal.
func (s *Service) EditURL(proposal *models.PendingProposal) (string, error) {
	token, err := security.GenerateProposalToken(proposal.ID, security.PurposeEdit, s.secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/pending-proposals/%s/edit?token=%s", s.baseURL, proposal.UUID, token), nil
}

// notifyProposalCreated mails the customer the signed confirm/edit links for
// a fresh proposal. Fire-and-forget: delivery failures are logged, never
// propagated into the scheduler run.
func (s *Service) notifyProposalCreated(plan *models.RecurringPlan, proposal *models.PendingProposal) {
	if plan.User.Email == "" {
		return
	}

	confirmURL, err := s.ConfirmURL(proposal)
	if err != nil {
		log.Errorf("notify: confirm link for proposal %d: %v", proposal.ID, err)
		return
	}
	editURL, err := s.EditURL(proposal)
	if err != nil {
		log.Errorf("notify: edit link for proposal %d: %v", proposal.ID, err)
		return
	}

	subject := fmt.Sprintf("Deine NordKorb Lieferung am %s", proposal.ScheduledFor.Format("02.01.2006"))
	body := fmt.Sprintf(
		"<p>Hallo %s,</p>"+
			"<p>deine nächste Vorratsbestellung über %s € steht an.</p>"+
			"<p><a href=\"%s\">Bestellung bestätigen</a> oder <a href=\"%s\">Bestellung anpassen</a>.</p>"+
			"<p>Die Links sind 72 Stunden gültig.</p>",
		plan.User.Name, proposal.ItemsSnapshot.Total.StringFixed(2), confirmURL, editURL,
	)

	go func() {
		_ = mail.SendMail(plan.User.Email, subject, body)
	}()
}

// notifyOrderConfirmed mails the order confirmation after materialization.
func (s *Service) notifyOrderConfirmed(order *models.Order) {
	if order == nil {
		return
	}
	user, err := s.repos.User.GetByID(order.UserID)
	if err != nil {
		log.Errorf("notify: loading user %d for order %d: %v", order.UserID, order.ID, err)
		return
	}

	subject := "Deine NordKorb Bestellbestätigung"
	body := fmt.Sprintf(
		"<p>Hallo %s,</p>"+
			"<p>vielen Dank! Wir haben %s € abgebucht und packen deine Bestellung.</p>"+
			"<p>Bestellnummer: %s</p>",
		user.Name, order.Total.StringFixed(2), order.UUID,
	)

	go func() {
		_ = mail.SendMail(user.Email, subject, body)
	}()
}
