package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	config "github.com/mnacademy/academy/configs"
	"github.com/mnacademy/academy/models"
)

// RenderCertificate turns a certificate record into a downloadable PDF and
// returns the hosted URL. It reads only the record's presentational fields;
// issuance and verification never depend on it.
func RenderCertificate(cert models.Certificate) (string, error) {
	htmlData, err := renderCertificateHTML(cert.LearnerDisplayName, cert.CourseTitle, cert.CertificateNumber, cert.IssuedAt)
	if err != nil {
		return "", fmt.Errorf("failed to render certificate HTML: %w", err)
	}

	pdfBytes, err := renderPDFFromHTML(htmlData)
	if err != nil {
		return "", fmt.Errorf("failed to render certificate PDF: %w", err)
	}

	url, err := uploadCertificateArtifact(pdfBytes, cert.CertificateNumber)
	if err != nil {
		return "", fmt.Errorf("failed to upload certificate artifact: %w", err)
	}

	return url, nil
}

func renderCertificateHTML(learnerName, courseTitle, certificateNumber string, issuedAt time.Time) (string, error) {
	tmpl, err := template.ParseFiles("templates/certificate.html")
	if err != nil {
		return "", err
	}

	data := struct {
		LearnerName       string
		CourseTitle       string
		CertificateNumber string
		IssuedDate        string
	}{
		LearnerName:       learnerName,
		CourseTitle:       courseTitle,
		CertificateNumber: certificateNumber,
		IssuedDate:        issuedAt.Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func renderPDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadCertificateArtifact(fileBytes []byte, certificateNumber string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("certificates/%s", certificateNumber),
		Folder:       "mna_academy_certificates",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
