package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	petname "github.com/dustinkirkland/golang-petname"

	"github.com/darkprince558/tether/internal/registry"
)

var (
	svc       *dynamodb.Client
	tableName string
)

func init() {
	tableName = os.Getenv("TABLE_NAME")
	if tableName == "" {
		log.Println("TABLE_NAME env var is empty, defaulting to TetherDevices")
		tableName = "TetherDevices"
	}

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	svc = dynamodb.NewFromConfig(cfg)
}

// Handler handles the API Gateway requests
func Handler(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	log.Printf("Processing request %s %s", request.RequestContext.HTTP.Method, request.RequestContext.HTTP.Path)

	userID := userIDFromAuth(request.Headers["authorization"])
	if userID == "" {
		return errorResponse(401, "Missing or invalid Authorization header"), nil
	}

	method := request.RequestContext.HTTP.Method

	switch method {
	case "POST":
		return handleRegister(ctx, userID, request.Body)
	case "GET":
		// /devices/{id} lookup, /devices list
		if id := request.PathParameters["id"]; id != "" {
			return handleLookup(ctx, userID, id)
		}
		return handleList(ctx, userID)
	default:
		return errorResponse(405, "Method Not Allowed"), nil
	}
}

// userIDFromAuth derives the account partition from the bearer token. The
// gateway authorizer has already validated the token itself.
func userIDFromAuth(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func handleRegister(ctx context.Context, userID, body string) (events.APIGatewayV2HTTPResponse, error) {
	var record registry.DeviceRecord
	if err := json.Unmarshal([]byte(body), &record); err != nil {
		return errorResponse(400, "Invalid JSON body"), nil
	}

	if record.UUID == "" {
		return errorResponse(400, "uuid is required"), nil
	}
	if record.DeviceType != "mobile" && record.DeviceType != "desktop" {
		return errorResponse(400, "deviceType must be mobile or desktop"), nil
	}

	record.UserID = userID
	if record.ID == "" {
		record.ID = petname.Generate(3, "-")
	}
	now := time.Now().UnixMilli()
	if record.CreatedAt == 0 {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		log.Printf("Failed to marshal record: %v", err)
		return errorResponse(500, "Internal Server Error"), nil
	}

	_, err = svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      av,
	})

	if err != nil {
		log.Printf("Failed to put record into DynamoDB: %v", err)
		return errorResponse(500, "Failed to save record"), nil
	}

	responseBody, _ := json.Marshal(record)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: 201,
		Body:       string(responseBody),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}, nil
}

func handleLookup(ctx context.Context, userID, id string) (events.APIGatewayV2HTTPResponse, error) {
	out, err := svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
			"id":     &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		log.Printf("Failed to get record: %v", err)
		return errorResponse(500, "Failed to lookup device"), nil
	}

	if out.Item == nil {
		return errorResponse(404, "Device not found"), nil
	}

	var record registry.DeviceRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		log.Printf("Failed to unmarshal record: %v", err)
		return errorResponse(500, "Internal Server Error"), nil
	}

	responseBody, _ := json.Marshal(record)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: 200,
		Body:       string(responseBody),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}, nil
}

func handleList(ctx context.Context, userID string) (events.APIGatewayV2HTTPResponse, error) {
	out, err := svc.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(tableName),
		KeyConditionExpression: aws.String("userId = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		log.Printf("Failed to query devices: %v", err)
		return errorResponse(500, "Failed to list devices"), nil
	}

	records := []registry.DeviceRecord{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		log.Printf("Failed to unmarshal records: %v", err)
		return errorResponse(500, "Internal Server Error"), nil
	}

	responseBody, _ := json.Marshal(records)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: 200,
		Body:       string(responseBody),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}, nil
}

// Helper functions
func errorResponse(statusCode int, message string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: statusCode,
		Body:       fmt.Sprintf(`{"error": "%s"}`, message),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func main() {
	lambda.Start(Handler)
}
