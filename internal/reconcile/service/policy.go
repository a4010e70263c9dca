package service

import (
	"fmt"

	"image-recon/internal/reconcile/model"
)

// HighConfidence: порог режима confirm-high.
const HighConfidence = 0.90

// Policy решает, можно ли записывать результат документа.
// По умолчанию (dry-run) запись запрещена.
type Policy struct {
	DryRun    bool
	High      bool
	Threshold *float64 // если задан: перекрывает High
}

func PolicyFrom(opt model.Options) Policy {
	return Policy{DryRun: opt.DryRun, High: opt.ConfirmHigh, Threshold: opt.ConfirmThreshold}
}

// Authorize сравнивает среднюю уверенность документа с действующим порогом.
func (p Policy) Authorize(avg float64) bool {
	if p.DryRun {
		return false
	}
	if p.Threshold != nil {
		return avg >= *p.Threshold
	}
	if p.High {
		return avg >= HighConfidence
	}
	return false
}

func (p Policy) String() string {
	switch {
	case p.DryRun:
		return "dry-run"
	case p.Threshold != nil:
		return fmt.Sprintf("threshold>=%.2f", *p.Threshold)
	case p.High:
		return fmt.Sprintf("confirm-high>=%.2f", HighConfidence)
	default:
		return "no-write"
	}
}
