package invest

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"text/template"

	"github.com/alessio/shellescape"

	"github.com/natcap/invest-submit/internal/scheduler"
)

//go:embed templates/invest.sbatch.tmpl
var scriptTemplate string

var batchTemplate = template.Must(template.New("invest.sbatch").Parse(scriptTemplate))

// scriptData is the template view of a request. Every field that lands in
// shell context is already quoted; directive fields are validated instead,
// since sbatch reads them without a shell.
type scriptData struct {
	JobName   string
	Time      string
	CPUs      int
	MemPerCPU string
	MailType  string
	MailUser  string
	Partition string

	Version      string
	Model        string
	Source       string
	Destination  string
	NWorkers     int
	PatchWorkers bool

	ScratchRef    string
	DatastackDir  string
	WorkspaceRef  string
	WorkspaceName string

	ContainerBin string
	ImageRepo    string
	GDALCacheMax int
}

func newScriptData(r *SubmissionRequest) scriptData {
	o := r.Options
	return scriptData{
		JobName:   r.JobName(),
		Time:      scheduler.FormatTime(r.Runtime),
		CPUs:      r.CPUs(),
		MemPerCPU: o.MemPerCPU,
		MailType:  o.MailType,
		MailUser:  r.MailUser(),
		Partition: o.Partition,

		Version:      shellescape.Quote(r.Version),
		Model:        shellescape.Quote(r.ModelName),
		Source:       shellescape.Quote(r.SourceArchive),
		Destination:  shellescape.Quote(r.Destination),
		NWorkers:     r.NWorkers,
		PatchWorkers: r.PatchesWorkers(),

		ScratchRef:    "${" + o.ScratchEnv + "}",
		DatastackDir:  shellescape.Quote(r.DatastackDirName()),
		WorkspaceRef:  "${" + o.WorkspaceEnv + "}",
		WorkspaceName: shellescape.Quote(r.SafeModelName()),

		ContainerBin: shellescape.Quote(o.ContainerBin),
		ImageRepo:    shellescape.Quote(o.ImageRepo),
		GDALCacheMax: o.GDALCacheMax,
	}
}

// Render produces the batch script for a request. It performs no I/O.
func Render(r *SubmissionRequest) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := batchTemplate.Execute(&buf, newScriptData(r)); err != nil {
		return "", fmt.Errorf("render batch script for %s: %w", strconv.Quote(r.ModelName), err)
	}
	return buf.String(), nil
}
