package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrNotURL        = errors.New("reference is not an absolute url")
	ErrNotStorageURL = errors.New("url has no /o/ object segment")
	ErrMalformedPath = errors.New("malformed path")
)

// StoragePath достаёт путь объекта из download-URL хранилища:
// https://host/v0/b/bucket/o/jornadas%2F555%2Fdepois.jpg?token=x -> jornadas/555/depois.jpg
func StoragePath(ref string) (string, error) {
	u, err := parseAbsURL(ref)
	if err != nil {
		return "", err
	}
	parts := strings.Split(u.EscapedPath(), "/o/")
	if len(parts) < 2 {
		return "", ErrNotStorageURL
	}
	p, err := url.PathUnescape(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode object path: %w", err)
	}
	if p == "" {
		return "", ErrNotStorageURL
	}
	return p, nil
}

func parseAbsURL(ref string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("parse reference: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, ErrNotURL
	}
	return u, nil
}

// lastSegment: хвост пути после последнего "/".
func lastSegment(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// reference: разобранная ссылка из документа jornadas.
type reference struct {
	raw      string
	path     string // ключ для стадии path_exact
	filename string
	parsed   bool // путь извлечён из download-URL
	parseErr error
}

func parseReference(raw string) reference {
	ref := reference{raw: raw}
	p, err := StoragePath(raw)
	if err == nil {
		ref.path = p
		ref.filename = lastSegment(p)
		ref.parsed = true
		return ref
	}
	ref.parseErr = err

	// не download-URL: ищем ссылку как есть, имя файла берём из хвоста пути
	ref.path = strings.TrimSpace(raw)
	if u, uerr := parseAbsURL(raw); uerr == nil {
		ref.filename = lastSegment(u.Path)
		return ref
	}
	s := ref.path
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	ref.filename = lastSegment(s)
	return ref
}

// checkPath отсекает пути, которые нельзя зарегистрировать в индексе.
func checkPath(p string) (filename string, err error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: empty", ErrMalformedPath)
	}
	filename = lastSegment(p)
	if filename == "" {
		return "", fmt.Errorf("%w: %q has no filename", ErrMalformedPath, p)
	}
	return filename, nil
}
