package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/limbo/lumi/internal/app"
	"github.com/limbo/lumi/pkg/config"
	"github.com/limbo/lumi/pkg/logging"
)

var chiLambda *chiadapter.ChiLambdaV2

// Built once per cold start and reused by every invocation.
func init() {
	cfg := config.New()
	logging.Setup(logging.Options{Level: cfg.GetString("LOG_LEVEL")})
	ctx := context.Background()
	kv, err := app.NewStore(ctx, cfg)
	if err != nil {
		log.Fatal("storage error: " + err.Error())
	}
	serv, err := app.NewServer(cfg, kv)
	if err != nil {
		log.Fatal("configuration error: " + err.Error())
	}
	chiLambda = chiadapter.NewV2(serv.Router())
	slog.Info("lambda initialized")
}

func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
