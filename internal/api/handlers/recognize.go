package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tcge/card-intel/backend/internal/services"
)

// maxUploadBytes caps accepted card images at 10 MB.
const maxUploadBytes = 10 << 20

const defaultRemoteTopK = 10

// RecognizeHandler exposes the two recognition paths. The local pipeline and
// the remote similarity service are selectable alternatives, never chained.
type RecognizeHandler struct {
	recognizer *services.Recognizer
	remote     *services.RemoteClassifierService
	retrieval  *services.RetrievalEngine
}

func NewRecognizeHandler(recognizer *services.Recognizer, remote *services.RemoteClassifierService, retrieval *services.RetrievalEngine) *RecognizeHandler {
	return &RecognizeHandler{recognizer: recognizer, remote: remote, retrieval: retrieval}
}

// RecognizeCard runs the local OCR + visual pipeline on the uploaded image.
func (h *RecognizeHandler) RecognizeCard(c *gin.Context) {
	imageBytes, ok := readCardImage(c)
	if !ok {
		return
	}

	result, err := h.recognizer.Recognize(c.Request.Context(), imageBytes)
	if err != nil {
		if errors.Is(err, services.ErrImageDecode) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"matches": []services.MatchCandidate{},
				"message": "The uploaded file could not be read as an image",
			})
			return
		}
		log.Printf("recognition failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// RecognizeCardCloud sends the image to the remote embedding-similarity
// service. A remote failure is reported as such; the local pipeline is not
// substituted.
func (h *RecognizeHandler) RecognizeCardCloud(c *gin.Context) {
	imageBytes, ok := readCardImage(c)
	if !ok {
		return
	}
	topK := defaultRemoteTopK
	if v, err := strconv.Atoi(c.Query("top_k")); err == nil && v > 0 {
		topK = v
	}

	remote, err := h.remote.Recognize(c.Request.Context(), imageBytes, topK)
	if err != nil {
		status := http.StatusBadGateway
		message := "Remote recognition failed"
		switch {
		case errors.Is(err, services.ErrRemoteDisabled):
			status = http.StatusServiceUnavailable
			message = "Remote recognition is not configured"
		case errors.Is(err, services.ErrRemoteTimeout):
			status = http.StatusGatewayTimeout
			message = "Remote recognition timed out, please try again"
		}
		log.Printf("remote recognition failed: %v", err)
		c.JSON(status, gin.H{
			"success": false,
			"matches": []services.MatchCandidate{},
			"message": message,
		})
		return
	}

	result := &services.RecognitionResult{
		Success: remote.Success,
		Message: remote.Message,
		TimeMs:  remote.TimeMs,
		Matches: []services.MatchCandidate{},
	}
	for _, m := range remote.Matches {
		candidate, err := h.retrieval.CandidateForCard(c.Request.Context(), m.CardID, clampSimilarity(m.Similarity), "similarity")
		if err != nil {
			log.Printf("remote match lookup card %d: %v", m.CardID, err)
			continue
		}
		if candidate != nil {
			result.Matches = append(result.Matches, *candidate)
		}
	}
	if result.Message == "" {
		if len(result.Matches) > 0 {
			result.Success = true
			result.Message = "Remote recognition succeeded"
		} else {
			result.Message = "Remote recognition found no similar cards"
		}
	}
	c.JSON(http.StatusOK, result)
}

// GetAIStatus reports whether the remote similarity service is reachable.
func (h *RecognizeHandler) GetAIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.remote.Status(c.Request.Context()))
}

// readCardImage accepts either a multipart upload under "file"/"image" or a
// raw request body. Writes the error response itself when the input is bad.
func readCardImage(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	for _, field := range []string{"file", "image"} {
		fh, err := c.FormFile(field)
		if err != nil {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "could not read uploaded file"})
			return nil, false
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "could not read uploaded file"})
			return nil, false
		}
		return data, true
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no image provided"})
		return nil, false
	}
	return data, true
}

func clampSimilarity(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
