package server

import (
	"encoding/json"
	"errors"
	"math/rand"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"trackvault/cache"
	"trackvault/logger"
	"trackvault/model"
	"trackvault/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxTrackFileSize is the inclusive upper bound on uploaded file size.
const maxTrackFileSize = 50 << 20 // 50 MiB

// audioExtensions are accepted when the declared content type is not audio/*.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".opus": true,
	".weba": true,
}

// isAudioUpload accepts a declared audio content type or a recognized audio
// file extension.
func isAudioUpload(mimeType, fileName string) bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "audio/") {
		return true
	}
	return audioExtensions[strings.ToLower(filepath.Ext(fileName))]
}

// GetTracksHandler lists tracks, optionally filtered by tag, title search
// and limit. Public, behind the feature gate.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	filter := model.TrackFilter{
		Tag:    r.URL.Query().Get("tag"),
		Search: r.URL.Query().Get("search"),
	}
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	cacheKey := cache.ListKey(filter)
	if tracks, ok := h.trackCache.GetList(r.Context(), cacheKey); ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
		return
	}

	tracks, err := h.trackRepo.ListTracks(filter)
	if err != nil {
		logger.Error("Failed to list tracks", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.trackCache.SetList(r.Context(), cacheKey, tracks)
	respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// GetTrackHandler returns a single track by ID. Public, behind the feature
// gate.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.trackRepo.GetTrackByID(id)
	if err != nil {
		logger.Error("Failed to get track", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if track == nil {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"track": track})
}

// RandomTrackHandler returns one track drawn uniformly at random from the
// (optionally tag-filtered) library. A fresh draw happens per request.
func (h *APIHandler) RandomTrackHandler(w http.ResponseWriter, r *http.Request) {
	filter := model.TrackFilter{Tag: r.URL.Query().Get("tag")}

	tracks, err := h.trackRepo.ListTracks(filter)
	if err != nil {
		logger.Error("Failed to list tracks for random pick", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(tracks) == 0 {
		respondError(w, http.StatusNotFound, "No tracks found")
		return
	}

	track := tracks[rand.Intn(len(tracks))]
	respondJSON(w, http.StatusOK, map[string]interface{}{"track": track})
}

// uploadMetadataRequest is the metadata-only upload variant: the client has
// already stored the blob and only registers it here.
type uploadMetadataRequest struct {
	Title    string        `json:"title"`
	FileName string        `json:"file_name"`
	FileURL  string        `json:"file_url"`
	Tags     model.TagList `json:"tags"`
	FileSize int64         `json:"file_size"`
	MimeType string        `json:"mime_type"`
}

// UploadTrackHandler creates a track record. Admin only. Two variants share
// the endpoint: a multipart form carrying the file itself (the server stores
// the blob first), and a JSON body carrying metadata for an
// already-uploaded blob.
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType == "multipart/form-data" {
		h.uploadTrackFile(w, r)
		return
	}
	h.uploadTrackMetadata(w, r)
}

func (h *APIHandler) uploadTrackMetadata(w http.ResponseWriter, r *http.Request) {
	var req uploadMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.FileName == "" || req.FileURL == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.FileSize < 0 {
		respondError(w, http.StatusBadRequest, "file_size must not be negative")
		return
	}
	if req.FileSize > maxTrackFileSize {
		respondError(w, http.StatusBadRequest, "File exceeds the 50 MiB limit")
		return
	}
	if !isAudioUpload(req.MimeType, req.FileName) {
		respondError(w, http.StatusBadRequest, "Only audio files are accepted")
		return
	}

	track := &model.Track{
		Title:    req.Title,
		FileURL:  req.FileURL,
		FileName: req.FileName,
		Tags:     req.Tags,
		FileSize: req.FileSize,
		MimeType: req.MimeType,
	}
	if track.Tags == nil {
		track.Tags = model.TagList{}
	}

	if _, err := h.trackRepo.CreateTrack(track); err != nil {
		logger.Error("Failed to create track", logger.String("title", track.Title), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.trackCache.InvalidateLists(r.Context())
	logger.Info("Track registered", logger.Int64("id", track.ID), logger.String("title", track.Title))
	respondJSON(w, http.StatusCreated, map[string]interface{}{"track": track})
}

func (h *APIHandler) uploadTrackFile(w http.ResponseWriter, r *http.Request) {
	// Form fields stay in memory up to 10 MiB; the file part spills to disk.
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	if header.Size > maxTrackFileSize {
		respondError(w, http.StatusBadRequest, "File exceeds the 50 MiB limit")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if !isAudioUpload(mimeType, header.Filename) {
		respondError(w, http.StatusBadRequest, "Only audio files are accepted")
		return
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "audio/mpeg"
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		// Default to the uploaded filename minus its extension.
		base := filepath.Base(header.Filename)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	objectName := "audio/" + uuid.New().String() + ext

	fileURL, err := h.store.Put(r.Context(), objectName, file, header.Size, mimeType)
	if err != nil {
		logger.Error("Failed to store uploaded file", logger.String("object", objectName), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	track := &model.Track{
		Title:    title,
		FileURL:  fileURL,
		FileName: objectName,
		Tags:     model.ParseTags(r.FormValue("tags")),
		FileSize: header.Size,
		MimeType: mimeType,
	}

	if _, err := h.trackRepo.CreateTrack(track); err != nil {
		// The blob is orphaned now; acceptable, a cleanup pass can find it.
		logger.Error("Failed to create track after upload",
			logger.String("object", objectName), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.trackCache.InvalidateLists(r.Context())
	logger.Info("Track uploaded", logger.Int64("id", track.ID),
		logger.String("title", track.Title), logger.Int64("size", track.FileSize))
	respondJSON(w, http.StatusCreated, map[string]interface{}{"track": track})
}

// DeleteTrackHandler removes a track. Admin only. Blob removal failure is
// logged and swallowed: the record is the source of truth for existence, and
// an orphaned blob beats an orphaned record pointing at nothing.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.trackRepo.GetTrackByID(id)
	if err != nil {
		logger.Error("Failed to look up track for deletion", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if track == nil {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}

	if err := h.store.Remove(r.Context(), track.FileName); err != nil {
		logger.Warn("Failed to remove blob, deleting record anyway",
			logger.Int64("id", id), logger.String("object", track.FileName), logger.ErrorField(err))
	}

	if err := h.trackRepo.DeleteTrack(id); err != nil {
		if errors.Is(err, repository.ErrTrackNotFound) {
			respondError(w, http.StatusNotFound, "Track not found")
			return
		}
		logger.Error("Failed to delete track", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.trackCache.InvalidateLists(r.Context())
	logger.Info("Track deleted", logger.Int64("id", id), logger.String("title", track.Title))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Track deleted",
		"id":      id,
	})
}
