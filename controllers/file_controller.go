package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"calendar_server_go/apperrors"
	"calendar_server_go/models"
)

const defaultMaxAudioBytes = 20 * 1024 * 1024 // 20 MB

// audioSubdir - подкаталог uploads для голосовых заметок.
const audioSubdir = "audio"

var allowedAudioExtensions = map[string]bool{".m4a": true, ".wav": true, ".mp3": true, ".aac": true, ".ogg": true}

// UploadAudioHandler сохраняет голосовую заметку и возвращает ее URI.
// Поле "file" - сам файл, необязательное поле "audioLength" - длительность
// в секундах.
// Пример URL: POST /api/audio/upload
func (a *API) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.UploadAudio"

	// Устанавливаем максимальный размер тела запроса
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxAudioBytes)
	if err := r.ParseMultipartForm(a.MaxAudioBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File must not exceed %dMB.", a.MaxAudioBytes/1024/1024), apperrors.KindValidation)
			return
		}
		respondAppError(w, r, apperrors.Validation(op, "Failed to parse multipart form: "+err.Error()))
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		respondAppError(w, r, apperrors.Validation(op, "Failed to read file from request: "+err.Error()))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	if !allowedAudioExtensions[ext] {
		respondAppError(w, r, apperrors.Validation(op, "Unsupported file type. Allowed: m4a, wav, mp3, aac, ogg."))
		return
	}

	audioLength := 0
	if s := r.FormValue("audioLength"); s != "" {
		if audioLength, err = strconv.Atoi(s); err != nil || audioLength < 0 {
			respondAppError(w, r, apperrors.Validation(op, "audioLength must be a non-negative number of seconds"))
			return
		}
	}

	dir := filepath.Join(a.UploadsDir, audioSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		respondAppError(w, r, apperrors.Storage(op, err))
		return
	}

	// Генерируем уникальное имя файла
	fileName := uuid.New().String() + ext
	filePath := filepath.Join(dir, fileName)

	dst, err := os.Create(filePath)
	if err != nil {
		respondAppError(w, r, apperrors.Storage(op, err))
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		respondAppError(w, r, apperrors.Storage(op, err))
		return
	}

	// URL относительный: /uploads/ раздается FileServer.
	uri := path.Join("/uploads", audioSubdir, fileName)
	a.log.Info("Voice note uploaded", "path", filePath, "uri", uri, "seconds", audioLength)

	respondJSON(w, http.StatusCreated, models.AudioUploadResponse{URI: uri, AudioLength: audioLength})
}
