package artifact

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"

	"barangay-services-backend/config"
	filestorage "barangay-services-backend/lib/file-storage"
	"barangay-services-backend/lib/utils/apperrors"
	dbmodels "barangay-services-backend/models/db"
)

type Result struct {
	ArtifactURL      string
	VerificationCode string
}

// Provider renders the issued certificate PDF and stores it. Generation is
// idempotent per request: an existing verification code and artifact are
// reused, so a timed-out call can simply be retried.
type Provider interface {
	Generate(ctx context.Context, rec dbmodels.RequestRecord) (Result, error)
}

var Instance Provider

func NewHandler(storage filestorage.Provider) {
	Instance = &impl{
		storage:   storage,
		verifyURL: config.Conf.Artifact.VerifyURL,
		timeout:   time.Duration(config.Conf.Artifact.TimeoutSec) * time.Second,
	}
}

type impl struct {
	storage   filestorage.Provider
	verifyURL string
	timeout   time.Duration
}

func (i impl) Generate(ctx context.Context, rec dbmodels.RequestRecord) (Result, error) {
	if rec.ArtifactURL != "" && rec.VerificationCode != "" {
		return Result{ArtifactURL: rec.ArtifactURL, VerificationCode: rec.VerificationCode}, nil
	}
	code := rec.VerificationCode
	if code == "" {
		code = uuid.NewString()
	}

	pdfFile, err := i.renderCertificate(rec, code)
	if err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	key := filestorage.ObjectKey(rec.ID, "certificate.pdf")
	url, err := i.storage.Put(ctx, key, pdfFile, "application/pdf")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, &apperrors.DependencyTimeoutError{Dependency: "artifact generator", Err: err}
		}
		return Result{}, err
	}
	return Result{ArtifactURL: url, VerificationCode: code}, nil
}

func (i impl) renderCertificate(rec dbmodels.RequestRecord, code string) (pdfFile []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("renderCertificate panic recover: %v", r)
		}
	}()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	if pdf.Error() != nil {
		return nil, pdf.Error()
	}

	documentName := "Certificate"
	if rec.Category != nil {
		documentName = rec.Category.Name
	}
	holderName := rec.RequesterID
	if rec.Requester != nil {
		holderName = rec.Requester.GetFullName()
	}

	pdf.CellFormat(0, 12, "Republic of the Philippines", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "Office of the Barangay", "", 1, "C", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, documentName, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	body := fmt.Sprintf("This is to certify that %v has been issued this %v for the purpose of: %v.",
		holderName, documentName, rec.Purpose)
	pdf.MultiCell(0, 7, body, "", "L", false)
	pdf.Ln(4)
	pdf.CellFormat(0, 7, fmt.Sprintf("Issued on: %v", time.Now().Format("January 2, 2006")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Verification code: %v", code), "", 1, "L", false, 0, "")

	err = i.putVerificationQR(pdf, code)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	err = pdf.Output(buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (i impl) putVerificationQR(pdf *fpdf.Fpdf, code string) error {
	png, err := qrcode.Encode(fmt.Sprintf("%v/%v", i.verifyURL, code), qrcode.Medium, 256)
	if err != nil {
		return err
	}
	options := fpdf.ImageOptions{
		ImageType: "png",
	}
	name := "verification_qr"
	pdf.RegisterImageOptionsReader(name, options, bytes.NewReader(png))
	if pdf.Error() != nil {
		return pdf.Error()
	}
	posY := pdf.GetY() + 8
	pdf.ImageOptions(name, 80, posY, 40, 40, false, options, 0, "")
	return pdf.Error()
}
