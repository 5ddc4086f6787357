package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/usecases"
)

// SessionResponse is returned when a session is opened.
type SessionResponse struct {
	ID      string         `json:"id"`
	Framing domain.Framing `json:"framing"`
}

// CreateSessionHandler opens a view session for a map client.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := deps.Sessions.Open(nil)
		if err != nil {
			return errFromUsecase(c, err)
		}
		c.Location("/v1/sessions/" + s.ID())
		return c.Status(fiber.StatusCreated).JSON(SessionResponse{
			ID:      s.ID(),
			Framing: deps.Clusters.Framing(),
		})
	}
}

// DeleteSessionHandler tears a session down.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Close(c.Params("id")); err != nil {
			return errFromUsecase(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UpdateViewHandler records the bounds the client's map now shows. The visible
// set is recomputed once the view has settled.
func UpdateViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b domain.Bounds
		if err := c.BodyParser(&b); err != nil {
			return errBadRequest(c, "invalid bounds body")
		}
		if _, err := regionFromBounds(b); err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := deps.Sessions.UpdateView(c.Params("id"), b); err != nil {
			return errFromUsecase(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "scheduled"})
	}
}

// SessionVisibleHandler returns the session's latest visible set.
func SessionVisibleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return errFromUsecase(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(visibleResponse(deps.Clusters, s.Visible()))
	}
}

// MarkerHoverHandler reports the pointer entering a marker and returns its tooltip.
func MarkerHoverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, p, ok, err := sessionAndPoint(c, deps)
		if !ok {
			return err
		}
		tip, err := s.Hover(p)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(tip)
	}
}

// MarkerLeaveHandler reports the pointer leaving a marker.
func MarkerLeaveHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, p, ok, err := sessionAndPoint(c, deps)
		if !ok {
			return err
		}
		if err := s.Leave(p); err != nil {
			return errFromUsecase(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MarkerClickHandler focuses a marker and returns where the map should move.
func MarkerClickHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, p, ok, err := sessionAndPoint(c, deps)
		if !ok {
			return err
		}
		fi, err := s.Focus(c.UserContext(), p)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(fi)
	}
}

// sessionAndPoint resolves the session and the marker location in the body.
// When ok is false the error response has been written and err is what the
// handler should return.
func sessionAndPoint(c *fiber.Ctx, deps *Dependencies) (s *usecases.ViewSession, p domain.GeoPoint, ok bool, err error) {
	s, err = deps.Sessions.Get(c.Params("id"))
	if err != nil {
		return nil, p, false, errFromUsecase(c, err)
	}
	if err := c.BodyParser(&p); err != nil {
		return nil, p, false, errBadRequest(c, "invalid location body")
	}
	return s, p, true, nil
}
