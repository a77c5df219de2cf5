package services

import (
	"errors"
	"fmt"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	qrDir  = "qr_codes"
	qrSize = 256
)

// QRService renders QR code PNGs for tables and Wi-Fi networks into media storage.
type QRService struct {
	media   *MediaStorage
	baseURL string
}

// NewQRService creates a QRService. baseURL is the public menu site tables link to.
func NewQRService(media *MediaStorage, baseURL string) *QRService {
	return &QRService{media: media, baseURL: strings.TrimRight(baseURL, "/")}
}

// TableURL is the menu link encoded in a table's QR code.
func (s *QRService) TableURL(shortName string, number int) string {
	return fmt.Sprintf("%s/%s?t=%d", s.baseURL, shortName, number)
}

// TableQR writes the QR code for table number of the organization and
// returns its public path. An existing file is kept as is.
func (s *QRService) TableQR(shortName string, number int) (string, error) {
	name := fmt.Sprintf("qr_%s_%d.png", SafeFilename(shortName), number)
	return s.write(name, s.TableURL(shortName, number), false)
}

// WiFiPayload is the join-network string understood by phone cameras.
func WiFiPayload(ssid, password string) string {
	escape := strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, `:`, `\:`, `"`, `\"`)
	return fmt.Sprintf("WIFI:T:WPA;S:%s;P:%s;;", escape.Replace(ssid), escape.Replace(password))
}

// WiFiQR writes the QR code for a Wi-Fi network and returns its public path.
// The file is regenerated on every call since credentials change in place.
func (s *QRService) WiFiQR(id, ssid, password string) (string, error) {
	name := fmt.Sprintf("wifi_%s.png", SafeFilename(id))
	return s.write(name, WiFiPayload(ssid, password), true)
}

func (s *QRService) write(name, content string, overwrite bool) (string, error) {
	full, public, err := s.media.prepare(qrDir, name)
	if err != nil {
		return "", err
	}
	if !overwrite {
		if _, err := os.Stat(full); err == nil {
			return public, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	if err := qrcode.WriteFile(content, qrcode.Medium, qrSize, full); err != nil {
		return "", fmt.Errorf("write qr code: %w", err)
	}
	return public, nil
}
