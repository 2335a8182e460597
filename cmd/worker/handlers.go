package main

import (
	"github.com/hibiken/asynq"

	"bookshelf-backend/internal/infrastructure/email"
	emailjob "bookshelf-backend/internal/infrastructure/email/job"
	"bookshelf-backend/internal/shared"
)

// HandlerRegistry holds all job handlers.
type HandlerRegistry struct {
	decisionEmail *emailjob.DecisionEmailHandler
}

func initializeHandlers(cfg *Config) *HandlerRegistry {
	emailSvc := email.NewSMTPEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailFrom)

	return &HandlerRegistry{
		decisionEmail: emailjob.NewDecisionEmailHandler(emailSvc),
	}
}

// RegisterHandlers registers all handlers with the mux.
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeProposalDecisionEmail, h.decisionEmail.ProcessTask)
}
