package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"cycleroute/internal/middleware"
	"cycleroute/internal/models"
	"cycleroute/internal/repository"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients don't send a stable Origin
	},
}

// SocketController serves the live trip sockets: riders stream fixes in,
// followers receive the saved points.
type SocketController struct {
	auth     *middleware.Auth
	trips    repository.TripRepository
	recorder *Recorder
	hub      *TripHub
}

func NewSocketController(auth *middleware.Auth, trips repository.TripRepository, recorder *Recorder, hub *TripHub) *SocketController {
	return &SocketController{auth: auth, trips: trips, recorder: recorder, hub: hub}
}

// authenticate reads the JWT from the token query parameter, since browsers
// and most mobile socket clients cannot set headers on the upgrade.
func (sc *SocketController) authenticate(c *gin.Context) (uint, error) {
	tokenString := c.Query("token")
	if tokenString == "" {
		return 0, errors.New("missing authentication token")
	}
	claims, err := sc.auth.ValidateToken(tokenString)
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	return claims.RiderID, nil
}

// HandleRecord upgrades the rider's connection and records each fix sent.
func (sc *SocketController) HandleRecord(c *gin.Context) {
	riderID, err := sc.authenticate(c)
	if err != nil {
		logrus.WithError(err).Warn("Record socket: authentication failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	tripID := c.Param("id")
	trip, err := ownedTrip(c.Request.Context(), sc.trips, tripID, riderID)
	if err != nil {
		if errors.Is(err, errForeignTrip) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		respondError(c, "HandleRecord", err)
		return
	}
	if trip.Status != models.TripRecording {
		c.JSON(http.StatusConflict, gin.H{"error": ErrTripNotRecording.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{
		"trip_id":  tripID,
		"rider_id": riderID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	})
	log.Info("Rider recording socket established.")

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("Rider recording socket closed.")
			} else {
				log.WithError(err).Warn("Rider recording socket read failed.")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if stop := sc.processFix(c, conn, tripID, p); stop {
			return
		}
	}
}

// processFix handles one message; it returns true when the trip can no
// longer be recorded and the socket should close.
func (sc *SocketController) processFix(c *gin.Context, conn *websocket.Conn, tripID string, p []byte) bool {
	var fix LocationFix
	if err := json.Unmarshal(p, &fix); err != nil {
		logrus.WithError(err).WithField("trip_id", tripID).Warn("Invalid location fix payload.")
		conn.WriteJSON(gin.H{"error": "Invalid location data format. Check timestamp format."})
		return false
	}

	point, saved, err := sc.recorder.Record(c.Request.Context(), tripID, fix)
	switch {
	case errors.Is(err, ErrTripNotRecording):
		conn.WriteJSON(gin.H{"error": err.Error()})
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "trip finished"))
		return true
	case errors.Is(err, repository.ErrInvalid):
		conn.WriteJSON(gin.H{"error": err.Error()})
		return false
	case err != nil:
		logrus.WithError(err).WithField("trip_id", tripID).Error("Failed to record trip point.")
		conn.WriteJSON(gin.H{"error": "Failed to save location."})
		return false
	}

	if !saved {
		conn.WriteJSON(gin.H{"status": "ignored"})
		return false
	}
	conn.WriteJSON(gin.H{
		"status":      "saved",
		"event_type":  point.EventType,
		"distance":    point.DistanceFromLast,
		"is_moving":   point.IsMoving,
		"sequence_id": point.ID,
	})
	return false
}

// HandleFollow streams a trip's saved points to a spectator.
func (sc *SocketController) HandleFollow(c *gin.Context) {
	if _, err := sc.authenticate(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	tripID := c.Param("id")
	if _, err := sc.trips.GetTrip(c.Request.Context(), tripID); err != nil {
		respondError(c, "HandleFollow", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	sc.hub.Subscribe(tripID, conn)
	defer sc.hub.Unsubscribe(tripID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logrus.WithField("trip_id", tripID).Debug("Follower socket closed.")
			return
		}
	}
}
