package constants

// Stage is a state of one pipeline run.
type Stage string

const (
	StageIdle           Stage = "IDLE"
	StageUploading      Stage = "UPLOADING"
	StageOCRProcessing  Stage = "OCR_PROCESSING"
	StageListExtraction Stage = "LIST_EXTRACTION"
	StageListValidated  Stage = "LIST_VALIDATED"
	StagePerProject     Stage = "PER_PROJECT"
	StageCompleted      Stage = "COMPLETED"
	StageFailed         Stage = "FAILED"
)

// Terminal reports whether no further transition can follow s.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Progress checkpoints. The per-project loop spans ProgressLoopStart..ProgressLoopStart+ProgressLoopSpan.
const (
	ProgressUploading      = 0.1
	ProgressOCR            = 0.2
	ProgressListExtraction = 0.3
	ProgressListValidated  = 0.4
	ProgressLoopStart      = 0.5
	ProgressLoopSpan       = 0.4
	ProgressDone           = 1.0
)

// Status texts shown to the user for each stage.
const (
	StatusUploading      = "Upload du fichier vers Mistral..."
	StatusOCR            = "Traitement OCR du document..."
	StatusListExtraction = "Extraction de la liste de projets..."
	StatusListValidated  = "Vérification des projets..."
	StatusLoopStart      = "Extraction des données pour %d projet(s)..."
	StatusProject        = "Analyse du projet %d/%d: %s..."
	StatusDone           = "Traitement terminé - %d projet(s) extrait(s)"
	StatusFailed         = "Erreur: %s"
)

// StatusTitleRunes bounds the project title shown in StatusProject.
const StatusTitleRunes = 50

// JobStatus is the lifecycle of a queued run.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)
