package auth

import (
	"encoding/base64"
	"fmt"
	"strings"

	"idocgw/logger"
)

var log = logger.Global().Named("auth")

// ExtractCredentials разбирает заголовок authorization и query-параметры
// запроса в CredentialRecord.
//
// Отсутствие upid/cid/bn не является ошибкой извлечения: такой запрос позже
// провалит аутентификацию, и по ответу нельзя понять, какой параметр был неверным.
func ExtractCredentials(headers, query map[string]string) (rec CredentialRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Panic while parsing credentials: %v", r)
			rec = CredentialRecord{}
			err = ErrMalformedCredentials
		}
	}()

	header, ok := authorizationHeader(headers)
	if !ok {
		log.Info("The request didn't have an authorization header")
		return CredentialRecord{}, ErrMissingCredentials
	}

	username, password, err := decodeBasicCredentials(header)
	if err != nil {
		log.Info("Cannot parse authorization header: %v", err)
		return CredentialRecord{}, ErrMalformedCredentials
	}

	rec = CredentialRecord{
		Username: username,
		Password: password,
		TenantID: query[QueryTenantID],
		ClientID: query[QueryClientID],
		Bucket:   query[QueryBucket],
	}

	if rec.TenantID == "" {
		log.Warn("No user pool id (%s) provided in the request", QueryTenantID)
	}
	if rec.ClientID == "" {
		log.Warn("No client id (%s) provided in the request", QueryClientID)
	}
	if rec.Bucket == "" {
		log.Warn("No bucket (%s) provided in the request", QueryBucket)
	}

	return rec, nil
}

// authorizationHeader ищет заголовок в двух вариантах регистра:
// транспорт может нормализовать имена заголовков по-разному.
func authorizationHeader(headers map[string]string) (string, bool) {
	if v := headers["authorization"]; v != "" {
		return v, true
	}
	if v := headers["Authorization"]; v != "" {
		return v, true
	}
	return "", false
}

// decodeBasicCredentials разбирает значение вида "<scheme> <base64(user:pass)>".
func decodeBasicCredentials(header string) (string, string, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("expected two space-separated tokens, got %d", len(parts))
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("credentials are not valid base64: %w", err)
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", fmt.Errorf("no colon separator in decoded credentials")
	}
	if strings.TrimSpace(username) == "" {
		return "", "", fmt.Errorf("empty user name")
	}
	if strings.TrimSpace(password) == "" {
		return "", "", fmt.Errorf("empty password")
	}

	return username, password, nil
}
