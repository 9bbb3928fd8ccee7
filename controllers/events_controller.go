package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	middleware "github.com/phillip/event-easy-go/middleware"
	models "github.com/phillip/event-easy-go/models"
	services "github.com/phillip/event-easy-go/services"
	utils "github.com/phillip/event-easy-go/utils"
)

type eventForm struct {
	Name        *string `form:"eventName" json:"eventName"`
	Description *string `form:"description" json:"description"`
	Category    *string `form:"category" json:"category"`
	Pattern     *string `form:"pattern" json:"pattern"`
	Time        *string `form:"time" json:"time"`
	Updates     *string `form:"updates" json:"updates"`
	VenueID     *string `form:"venue_id" json:"venue_id"`
}

// fields converts the bound form into a partial update. Absent keys stay nil.
func (f eventForm) fields() (models.EventFields, error) {
	out := models.EventFields{
		Name:        f.Name,
		Description: f.Description,
		Category:    f.Category,
		Pattern:     f.Pattern,
		Updates:     f.Updates,
	}
	if f.Time != nil && *f.Time != "" {
		t, err := utils.ParseTime(*f.Time)
		if err != nil {
			return out, fmt.Errorf("invalid time format, use RFC3339 or YYYY-MM-DD: %w", models.ErrValidation)
		}
		out.ScheduledTime = &t
	}
	if f.VenueID != nil && *f.VenueID != "" {
		oid, err := primitive.ObjectIDFromHex(*f.VenueID)
		if err != nil {
			return out, models.InvalidID("venue", *f.VenueID)
		}
		out.VenueID = &oid
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// formUpload opens the first file found under keys. A missing file is not an error; the
// returned closer is always safe to call.
func formUpload(c *gin.Context, keys ...string) (*services.Upload, func(), error) {
	for _, key := range keys {
		fh, err := c.FormFile(key)
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			continue
		}
		if err != nil {
			return nil, func() {}, fmt.Errorf("invalid form data: %w", models.ErrValidation)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to open %s: %w", key, models.ErrValidation)
		}
		return &services.Upload{Filename: fh.Filename, File: f}, func() { f.Close() }, nil
	}
	return nil, func() {}, nil
}

func eventUploads(c *gin.Context) (image, video *services.Upload, closeAll func(), err error) {
	image, closeImage, err := formUpload(c, "image", "imageUrl")
	if err != nil {
		return nil, nil, closeImage, err
	}
	video, closeVideo, err := formUpload(c, "video", "videoUrl")
	return image, video, func() { closeImage(); closeVideo() }, err
}

// ---------------- CREATE ----------------
func CreateEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form eventForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fields, err := form.fields()
		if err != nil {
			respondError(c, d, "events.create", err)
			return
		}

		image, video, closeAll, err := eventUploads(c)
		defer closeAll()
		if err != nil {
			respondError(c, d, "events.create", err)
			return
		}

		in := services.CreateEventInput{
			Name:        deref(form.Name),
			Description: deref(form.Description),
			Category:    deref(form.Category),
			Pattern:     deref(form.Pattern),
			Updates:     deref(form.Updates),
			VenueID:     fields.VenueID,
		}
		if fields.ScheduledTime != nil {
			in.ScheduledTime = *fields.ScheduledTime
		}

		ev, err := d.Events.Create(c.Request.Context(), middleware.CurrentIdentity(c), in, image, video)
		if err != nil {
			respondError(c, d, "events.create", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Event created successfully", "event": ev})
	}
}

// ---------------- LIST ----------------
func ListEvents(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := d.Events.List(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, d, "events.list", err)
			return
		}
		writeEventList(c, views)
	}
}

func ListOrganizerEvents(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := d.Events.ListByOrganizer(c.Request.Context(), c.Param("organizerId"))
		if err != nil {
			respondError(c, d, "events.list_by_organizer", err)
			return
		}
		writeEventList(c, views)
	}
}

// writeEventList answers with the list, tagged by its most recently updated event and the
// item count so that deletions also change the tag.
func writeEventList(c *gin.Context, views []models.EventView) {
	if len(views) == 0 {
		c.JSON(http.StatusOK, []models.EventView{})
		return
	}

	latest := views[0]
	for _, v := range views {
		if v.UpdatedAt.After(latest.UpdatedAt) {
			latest = v
		}
	}

	etag := utils.GenerateETag(latest.ID, latest.UpdatedAt, strconv.Itoa(len(views)))
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("ETag", etag)
	c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

	c.JSON(http.StatusOK, views)
}

// ---------------- GET ----------------
func GetEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := d.Events.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, d, "events.get", err)
			return
		}

		etag := utils.GenerateETag(view.ID, view.UpdatedAt, strconv.Itoa(len(view.Attendees)))
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", view.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, view)
	}
}

// ---------------- UPDATE ----------------
func UpdateEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form eventForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fields, err := form.fields()
		if err != nil {
			respondError(c, d, "events.update", err)
			return
		}

		image, video, closeAll, err := eventUploads(c)
		defer closeAll()
		if err != nil {
			respondError(c, d, "events.update", err)
			return
		}

		ev, err := d.Events.Update(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), fields, image, video)
		if err != nil {
			respondError(c, d, "events.update", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Event updated successfully", "event": ev})
	}
}

// ---------------- STATUS ----------------
func UpdateEventStatus(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Status string `json:"status" form:"status" binding:"required"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}

		ev, err := d.Events.SetStatus(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), input.Status)
		if err != nil {
			respondError(c, d, "events.set_status", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Event status updated", "event": ev})
	}
}

// ---------------- DELETE ----------------
func DeleteEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := d.Events.Delete(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
			respondError(c, d, "events.delete", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "event deleted successfully",
			"id":      id,
		})
	}
}
