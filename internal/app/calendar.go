package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"clinic-booking-service/internal/schedule"
)

// GoogleCalendarConfig holds OAuth2 configuration
type GoogleCalendarConfig struct {
	Config *oauth2.Config
}

// ExternalEvent is a clinician's Google Calendar event projected onto
// the matrix grid's vocabulary so the admin view can show external
// busy time next to the clinic's own schedule.
type ExternalEvent struct {
	ID        string `json:"id"`
	Summary   string `json:"summary"`
	Date      string `json:"date"`       // YYYY-MM-DD, clinic-local
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`
	AllDay    bool   `json:"all_day"`
	Status    string `json:"status"`
}

// InitGoogleCalendarConfig initializes OAuth2 config for Google Calendar
func InitGoogleCalendarConfig() *GoogleCalendarConfig {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}

	return &GoogleCalendarConfig{Config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			calendar.CalendarReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}}
}

// GoogleAuthHandler initiates the OAuth2 flow for the clinician's calendar.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	calendarConfig := InitGoogleCalendarConfig()
	if calendarConfig == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}

	state := fmt.Sprintf("clinician_%s_%d", c.Query("clinician_id"), time.Now().Unix())

	url := calendarConfig.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GoogleOAuth2CallbackHandler handles the OAuth2 callback.
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	calendarConfig := InitGoogleCalendarConfig()
	if calendarConfig == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}

	token, err := calendarConfig.Config.Exchange(context.Background(), code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}

	tokenJSON, _ := json.Marshal(token)

	c.JSON(http.StatusOK, gin.H{
		"message": "Authorization successful",
		"state":   state,
		"token":   string(tokenJSON),
	})
}

// GetExternalEventsHandler lists the clinician's Google Calendar events
// for a date range, projected to clinic-local dates and HH:MM times.
// GET /api/calendar/events?from=YYYY-MM-DD&to=YYYY-MM-DD
func (a *App) GetExternalEventsHandler(c *gin.Context) {
	from, to, ok := a.dateRange(c)
	if !ok {
		return
	}

	srv, done := a.calendarService(c)
	if done {
		return
	}

	fromT, _ := schedule.ParseLocalDate(from)
	toT, _ := schedule.ParseLocalDate(to)

	calendarID := c.DefaultQuery("calendar_id", "primary")
	events, err := srv.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(fromT.Format(time.RFC3339)).
		TimeMax(toT.AddDate(0, 0, 1).Format(time.RFC3339)).
		MaxResults(250).
		Do()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to retrieve events: %v", err)})
		return
	}

	var out []ExternalEvent
	for _, item := range events.Items {
		ev := ExternalEvent{
			ID:      item.Id,
			Summary: item.Summary,
			Status:  item.Status,
		}
		if item.Start != nil && item.Start.DateTime != "" {
			if start, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
				local := start.Local()
				ev.Date = schedule.FormatLocalDate(local)
				ev.StartTime = local.Format("15:04")
			}
			if item.End != nil && item.End.DateTime != "" {
				if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
					ev.EndTime = end.Local().Format("15:04")
				}
			}
		} else if item.Start != nil && item.Start.Date != "" {
			ev.Date = item.Start.Date
			ev.AllDay = true
		}
		out = append(out, ev)
	}

	c.JSON(http.StatusOK, gin.H{
		"events": out,
		"count":  len(out),
	})
}

// GetCalendarListHandler lists the calendars the token can read.
func (a *App) GetCalendarListHandler(c *gin.Context) {
	srv, done := a.calendarService(c)
	if done {
		return
	}

	calendarList, err := srv.CalendarList.List().Do()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to retrieve calendars: %v", err)})
		return
	}

	type calendarInfo struct {
		ID         string `json:"id"`
		Summary    string `json:"summary"`
		Primary    bool   `json:"primary"`
		AccessRole string `json:"access_role"`
	}

	var calendars []calendarInfo
	for _, item := range calendarList.Items {
		calendars = append(calendars, calendarInfo{
			ID:         item.Id,
			Summary:    item.Summary,
			Primary:    item.Primary,
			AccessRole: item.AccessRole,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"calendars": calendars,
		"count":     len(calendars),
	})
}

// calendarService builds a Calendar client from the X-Google-Token
// header. done=true means a response was already written.
func (a *App) calendarService(c *gin.Context) (*calendar.Service, bool) {
	tokenStr := c.GetHeader("X-Google-Token")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google token required in X-Google-Token header"})
		return nil, true
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token format"})
		return nil, true
	}

	calendarConfig := InitGoogleCalendarConfig()
	if calendarConfig == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return nil, true
	}

	client := calendarConfig.Config.Client(context.Background(), &token)
	srv, err := calendar.NewService(context.Background(), option.WithHTTPClient(client))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create calendar service"})
		return nil, true
	}
	return srv, false
}
