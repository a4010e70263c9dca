package model

// Коллекции и поля документов в хранилище.
const (
	CollectionImages   = "imagens"
	CollectionJourneys = "jornadas"

	FieldStoragePath = "storage_path"
	FieldPaths       = "paths"
	FieldSHA256      = "sha256"
	FieldThumbs      = "thumbs"

	FieldRefs         = "imagens"          // исходные ссылки по ролям
	FieldRefsOriginal = "imagens_original" // сохранённая копия исходных ссылок
	FieldResolved     = "images_refs"      // результат сопоставления
	FieldStatus       = "status_images"
)

type Role string

const (
	RoleBefore Role = "before"
	RoleDuring Role = "during"
	RoleAfter  Role = "after"
)

// Roles: фиксированный порядок обхода ролей.
var Roles = []Role{RoleBefore, RoleDuring, RoleAfter}

// RoleFields: роль -> ключ поля внутри документа (исторически по-португальски).
type RoleFields map[Role]string

func DefaultRoleFields() RoleFields {
	return RoleFields{
		RoleBefore: "antes",
		RoleDuring: "durante",
		RoleAfter:  "depois",
	}
}

// Field возвращает ключ поля для роли; неизвестная роль отображается на своё имя.
func (f RoleFields) Field(r Role) string {
	if k, ok := f[r]; ok && k != "" {
		return k
	}
	return string(r)
}

type ImageRecord struct {
	ID          string
	StoragePath string            // канонический путь (может быть пустым)
	Paths       []string          // альтернативные пути
	SHA256      string            // хэш содержимого (опционально)
	Thumbs      map[string]string // ключ поля роли -> url превью
}

// AllPaths: канонический путь первым, затем альтернативные.
func (r ImageRecord) AllPaths() []string {
	out := make([]string, 0, len(r.Paths)+1)
	if r.StoragePath != "" {
		out = append(out, r.StoragePath)
	}
	return append(out, r.Paths...)
}

type JourneyRecord struct {
	ID          string
	Refs        map[Role][]string // всегда последовательность, длина >= 0
	Raw         map[string]any    // поле ссылок как есть, для сохранения в imagens_original
	HasRefs     bool              // было ли поле imagens/imagens_original вообще
	HasOriginal bool              // imagens_original уже сохранено
}

type MatchResult struct {
	ImageID    string  `json:"imageId"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"` // стадия, давшая совпадение
	Key        string  `json:"key"`    // ключ индекса, по которому нашли (для аудита)
}

type Status string

const (
	StatusLinked        Status = "linked"
	StatusPartialLinked Status = "partial_linked"
	StatusMissing       Status = "missing"
)

// Row: строка отчёта, по одной на документ jornadas.
type Row struct {
	JourneyID    string
	MatchedRoles []Role
	MissingRoles []Role
	Details      []string
	Status       Status
	Confidence   float64
	HasRefs      bool
}

// Options: политика записи и размеры страниц/пачек.
type Options struct {
	DryRun           bool     // по умолчанию true: никаких записей
	ConfirmHigh      bool     // писать при средней уверенности >= 0.90
	ConfirmThreshold *float64 // если задан: перекрывает ConfirmHigh
	PageSize         int
	BatchSize        int
	Roles            RoleFields
}

// Summary: счётчики прогона.
type Summary struct {
	Processed int `json:"processed"`
	Proposed  int `json:"proposed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}
