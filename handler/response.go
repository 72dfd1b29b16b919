package handler

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

const correlationHeader = "X-Correlation-Id"

type messageBody struct {
	Message string `json:"message"`
}

type challengeBody struct {
	Challenge string `json:"challenge"`
}

func respond(status int, corrID string, body any) events.APIGatewayV2HTTPResponse {
	resp := events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			resp.StatusCode = http.StatusInternalServerError
			return resp
		}
		resp.Body = string(b)
	}
	return resp
}

func ok(corrID string) events.APIGatewayV2HTTPResponse {
	return respond(http.StatusOK, corrID, nil)
}

func badRequest(corrID, message string) events.APIGatewayV2HTTPResponse {
	return respond(http.StatusBadRequest, corrID, messageBody{Message: message})
}

func unauthorized(corrID string) events.APIGatewayV2HTTPResponse {
	return respond(http.StatusUnauthorized, corrID, messageBody{Message: "Invalid signature"})
}

func internalError(corrID string) events.APIGatewayV2HTTPResponse {
	return respond(http.StatusInternalServerError, corrID, nil)
}
