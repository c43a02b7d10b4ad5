package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pekoMaster/ticketticket/internal/lifecycle"
	"github.com/pekoMaster/ticketticket/internal/monitoring"
	"github.com/pekoMaster/ticketticket/internal/queue"
	"github.com/pekoMaster/ticketticket/internal/repository"
	notifier "github.com/pekoMaster/ticketticket/internal/service"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// currentActor builds the capability-check principal from the JWT
// claims stored in context.
func currentActor(c echo.Context) (lifecycle.Actor, error) {
	id, err := getUserID(c)
	if err != nil {
		return lifecycle.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	levelStr, _ := c.Get("vlevel").(string)
	level, err := lifecycle.ParseVerificationLevel(levelStr)
	if err != nil {
		level = lifecycle.LevelUnverified
	}
	return lifecycle.Actor{ID: id, Role: role, Level: level}, nil
}

// parseID parses a numeric path parameter, rejecting zero.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// fanOut records a domain event after the transaction that produced it
// has committed: an in-app notification row for the recipient plus a
// broker publish for the webhook consumer.  Both halves are best
// effort; failures are logged and never surface to the caller.
func fanOut(ctx context.Context, notifications *repository.NotificationRepo, ev queue.NotificationEvent) {
	if ev.RecipientID != 0 && notifications != nil {
		payload, err := json.Marshal(ev)
		if err == nil {
			if err := notifications.Create(ctx, ev.RecipientID, ev.Kind, string(payload)); err != nil {
				log.Printf("notification insert failed (kind=%s user=%d): %v", ev.Kind, ev.RecipientID, err)
			}
		}
	}
	if err := notifier.Publish(ctx, ev); err != nil {
		monitoring.PublishFailure()
	}
}
