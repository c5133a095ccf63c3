package server

import (
	"emmark/internal/domain"
	"emmark/internal/stats"
)

// Request payloads

type CreateClientRequest struct {
	Name        string `json:"name"`
	Branch      string `json:"branch,omitempty"`
	Phone       string `json:"phone,omitempty"`
	IsConfirmed bool   `json:"isConfirmed,omitempty"`
}

type CreateActivityRequest struct {
	Name       string             `json:"name"`
	Date       string             `json:"date,omitempty"`
	Cost       float64            `json:"cost,omitempty" minimum:"0"`
	InCharge   string             `json:"inCharge,omitempty"`
	Type       string             `json:"type,omitempty" enum:"Logística,Entretenimiento,Catering,Marketing,Otro"`
	Status     string             `json:"status,omitempty" enum:"Pendiente,En Proceso,Finalizada"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
}

type SetStatusRequest struct {
	Status string `json:"status" enum:"Pendiente,En Proceso,Finalizada"`
}

// Response envelopes

type ClientResponse struct {
	Body domain.Client
}

type ClientListResponse struct {
	Body []domain.Client
}

type ActivityResponse struct {
	Body domain.Activity
}

type ActivityListResponse struct {
	Body []domain.Activity
}

type EventListResponse struct {
	Body []domain.Event
}

type StatsBody struct {
	Stats           stats.Stats         `json:"stats"`
	StatusBreakdown []stats.StatusCount `json:"status_breakdown"`
	CostByType      []stats.TypeCost    `json:"cost_by_type"`
}

type StatsResponse struct {
	Body StatsBody
}
