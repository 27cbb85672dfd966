// Package cbr fetches daily exchange rates from the Central Bank of Russia.
package cbr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Dan9191/ledger-service/internal/config"
	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Client handles integration with the Central Bank of Russia daily-rates
// SOAP endpoint.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new CBR client.
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.CBRURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for the daily currency rates.
func (c *Client) buildSOAPRequest(onDate time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<GetCursOnDate xmlns="http://web.cbr.ru/">
					<On_date>%s</On_date>
				</GetCursOnDate>
			</soap12:Body>
		</soap12:Envelope>`, onDate.Format("2006-01-02"))
}

// sendRequest sends a SOAP request to CBR.
func (c *Client) sendRequest(ctx context.Context, soapRequest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer([]byte(soapRequest)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/GetCursOnDate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	c.log.Debugf("CBR XML response: %s", string(body))

	return body, nil
}

// parseXMLResponse extracts the supported currencies from a ValuteCursOnDate
// payload. Rates are published per Vnom units of the foreign currency, so
// Vcurs/Vnom is the base amount for one foreign unit.
func (c *Client) parseXMLResponse(rawBody []byte) (models.RateTable, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %v", err)
	}

	rows := doc.FindElements("//ValuteCursOnDate")
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rate data found in XML")
	}

	table := models.RateTable{}
	for _, row := range rows {
		codeEl := row.FindElement("./VchCode")
		cursEl := row.FindElement("./Vcurs")
		nomEl := row.FindElement("./Vnom")
		if codeEl == nil || cursEl == nil || nomEl == nil {
			continue
		}
		currency, err := models.ParseCurrency(codeEl.Text())
		if err != nil {
			continue // not part of the supported set
		}
		curs, err := decimal.NewFromString(cursEl.Text())
		if err != nil {
			return nil, fmt.Errorf("failed to parse rate for %s: %v", currency, err)
		}
		nom, err := decimal.NewFromString(nomEl.Text())
		if err != nil || nom.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("failed to parse nominal for %s", currency)
		}
		table[currency] = curs.Div(nom)
	}

	if table.Empty() {
		return nil, fmt.Errorf("no supported currencies in rate data")
	}
	return table, nil
}

// Rates retrieves today's exchange rates for the supported currency set.
func (c *Client) Rates(ctx context.Context) (models.RateTable, error) {
	soapRequest := c.buildSOAPRequest(time.Now())
	body, err := c.sendRequest(ctx, soapRequest)
	if err != nil {
		return nil, err
	}

	table, err := c.parseXMLResponse(body)
	if err != nil {
		return nil, err
	}

	c.log.Infof("Retrieved %d exchange rates from CBR", len(table))
	return table, nil
}
