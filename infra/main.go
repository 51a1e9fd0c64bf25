package main

import (
	"fmt"

	aws "github.com/pulumi/pulumi-aws/sdk/v6/go/aws"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/apigatewayv2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/dynamodb"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lambda"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/secretsmanager"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// function describes one Lambda handler and the HTTP route it serves.
type function struct {
	name      string
	route     string
	policy    pulumi.StringOutput
	hasPolicy bool
}

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		project := ctx.Project()
		stack := ctx.Stack()

		prov, err := aws.NewProvider(ctx, "prov", &aws.ProviderArgs{
			DefaultTags: &aws.ProviderDefaultTagsArgs{
				Tags: pulumi.StringMap{
					"Project":   pulumi.String(project),
					"Stack":     pulumi.String(stack),
					"ManagedBy": pulumi.String("Pulumi"),
				},
			},
		})
		if err != nil {
			return err
		}
		awsOpts := pulumi.Provider(prov)

		usersTableName := configOrDefault(ctx, "hobbymatch:usersTable", "hobbymatch-users")
		interestsTableName := configOrDefault(ctx, "hobbymatch:userInterestsTable", "hobbymatch-user-interests")
		appEnv := configOrDefault(ctx, "hobbymatch:appEnv", "production")
		openAIModel := configOrDefault(ctx, "hobbymatch:openaiModel", "gpt-4o-mini")

		usersTable, err := dynamodb.NewTable(ctx, fmt.Sprintf("%s-%s-users", project, stack), &dynamodb.TableArgs{
			Name:        pulumi.String(usersTableName),
			BillingMode: pulumi.String("PAY_PER_REQUEST"),
			HashKey:     pulumi.String("userId"),
			Attributes: dynamodb.TableAttributeArray{
				&dynamodb.TableAttributeArgs{Name: pulumi.String("userId"), Type: pulumi.String("S")},
			},
		}, awsOpts)
		if err != nil {
			return err
		}

		// One row per (interest, user); partition keys are lowercased by the writer.
		interestsTable, err := dynamodb.NewTable(ctx, fmt.Sprintf("%s-%s-user-interests", project, stack), &dynamodb.TableArgs{
			Name:        pulumi.String(interestsTableName),
			BillingMode: pulumi.String("PAY_PER_REQUEST"),
			HashKey:     pulumi.String("interest"),
			RangeKey:    pulumi.String("userId"),
			Attributes: dynamodb.TableAttributeArray{
				&dynamodb.TableAttributeArgs{Name: pulumi.String("interest"), Type: pulumi.String("S")},
				&dynamodb.TableAttributeArgs{Name: pulumi.String("userId"), Type: pulumi.String("S")},
			},
		}, awsOpts)
		if err != nil {
			return err
		}

		// Holds {"openai_api_key": "..."}; the value is set out of band.
		secret, err := secretsmanager.NewSecret(ctx, fmt.Sprintf("%s-%s-openai", project, stack), &secretsmanager.SecretArgs{
			Description: pulumi.String("OpenAI API key for hobby recommendations"),
		}, awsOpts)
		if err != nil {
			return err
		}

		lambdaAssumeRolePolicy, err := iam.GetPolicyDocument(ctx, &iam.GetPolicyDocumentArgs{
			Statements: []iam.GetPolicyDocumentStatement{
				{
					Effect: pulumi.StringRef("Allow"),
					Principals: []iam.GetPolicyDocumentStatementPrincipal{
						{
							Type: "Service",
							Identifiers: []string{
								"lambda.amazonaws.com",
							},
						},
					},
					Actions: []string{
						"sts:AssumeRole",
					},
				},
			},
		}, nil)
		if err != nil {
			return err
		}

		createUserPolicy := pulumi.All(usersTable.Arn, interestsTable.Arn).ApplyT(func(vals []interface{}) string {
			return policyJSON(ctx, []iam.GetPolicyDocumentStatement{
				{
					Effect:    pulumi.StringRef("Allow"),
					Actions:   []string{"dynamodb:PutItem", "dynamodb:DeleteItem"},
					Resources: []string{vals[0].(string)},
				},
				{
					Effect:    pulumi.StringRef("Allow"),
					Actions:   []string{"dynamodb:BatchWriteItem"},
					Resources: []string{vals[1].(string)},
				},
			})
		}).(pulumi.StringOutput)

		lookupPolicy := interestsTable.Arn.ApplyT(func(arn string) string {
			return policyJSON(ctx, []iam.GetPolicyDocumentStatement{
				{
					Effect:    pulumi.StringRef("Allow"),
					Actions:   []string{"dynamodb:Query"},
					Resources: []string{arn},
				},
			})
		}).(pulumi.StringOutput)

		recommendPolicy := pulumi.All(usersTable.Arn, secret.Arn).ApplyT(func(vals []interface{}) string {
			return policyJSON(ctx, []iam.GetPolicyDocumentStatement{
				{
					Effect:    pulumi.StringRef("Allow"),
					Actions:   []string{"dynamodb:GetItem"},
					Resources: []string{vals[0].(string)},
				},
				{
					Effect:    pulumi.StringRef("Allow"),
					Actions:   []string{"secretsmanager:GetSecretValue"},
					Resources: []string{vals[1].(string)},
				},
			})
		}).(pulumi.StringOutput)

		env := pulumi.StringMap{
			"USERS_TABLE":          usersTable.Name,
			"USER_INTERESTS_TABLE": interestsTable.Name,
			"OPENAI_SECRET_ARN":    secret.Arn,
			"OPENAI_MODEL":         pulumi.String(openAIModel),
			"APP_ENV":              pulumi.String(appEnv),
		}

		api, err := apigatewayv2.NewApi(ctx, fmt.Sprintf("%s-%s-api", project, stack), &apigatewayv2.ApiArgs{
			ProtocolType: pulumi.String("HTTP"),
			CorsConfiguration: &apigatewayv2.ApiCorsConfigurationArgs{
				AllowOrigins: pulumi.ToStringArray([]string{"*"}),
				AllowMethods: pulumi.ToStringArray([]string{"GET", "POST", "OPTIONS"}),
				AllowHeaders: pulumi.ToStringArray([]string{"Content-Type"}),
			},
		}, awsOpts)
		if err != nil {
			return err
		}

		functions := []function{
			{name: "hello", route: "GET /hello"},
			{name: "create_user", route: "POST /users", policy: createUserPolicy, hasPolicy: true},
			{name: "get_users_by_interest", route: "GET /users/interest/{interest}", policy: lookupPolicy, hasPolicy: true},
			{name: "ai_recommendations", route: "POST /recommendations", policy: recommendPolicy, hasPolicy: true},
		}

		for _, f := range functions {
			fn, err := newHandlerFunction(ctx, fmt.Sprintf("%s-%s", project, stack), f, lambdaAssumeRolePolicy.Json, env, awsOpts)
			if err != nil {
				return err
			}
			if err := addRoute(ctx, fmt.Sprintf("%s-%s", project, stack), api, f, fn, awsOpts); err != nil {
				return err
			}
			ctx.Export(f.name+"Lambda", fn.Name)
		}

		_, err = apigatewayv2.NewStage(ctx, fmt.Sprintf("%s-%s-stage", project, stack), &apigatewayv2.StageArgs{
			ApiId:      api.ID(),
			Name:       pulumi.String("$default"),
			AutoDeploy: pulumi.Bool(true),
		}, awsOpts)
		if err != nil {
			return err
		}

		ctx.Export("apiEndpoint", api.ApiEndpoint)
		ctx.Export("usersTable", usersTable.Name)
		ctx.Export("userInterestsTable", interestsTable.Name)
		ctx.Export("secretArn", secret.Arn)
		ctx.Export("region", aws.GetRegionOutput(ctx, aws.GetRegionOutputArgs{}).Name())
		return nil
	})
}

func configOrDefault(ctx *pulumi.Context, key, def string) string {
	if v, ok := ctx.GetConfig(key); ok && v != "" {
		return v
	}
	return def
}

func policyJSON(ctx *pulumi.Context, statements []iam.GetPolicyDocumentStatement) string {
	policyDoc, err := iam.GetPolicyDocument(ctx, &iam.GetPolicyDocumentArgs{Statements: statements}, nil)
	if err != nil {
		panic(err)
	}
	return policyDoc.Json
}

// newHandlerFunction creates the role and the provided.al2 function for one
// handler. The zip is expected at ../dist/<name>.zip with a bootstrap binary.
func newHandlerFunction(ctx *pulumi.Context, prefix string, f function, assumeRolePolicy string, env pulumi.StringMap, opts pulumi.ResourceOption) (*lambda.Function, error) {
	role, err := iam.NewRole(ctx, fmt.Sprintf("%s-%s-role", prefix, f.name), &iam.RoleArgs{
		AssumeRolePolicy: pulumi.String(assumeRolePolicy),
	}, opts)
	if err != nil {
		return nil, err
	}
	_, err = iam.NewRolePolicyAttachment(ctx, fmt.Sprintf("%s-%s-basic", prefix, f.name), &iam.RolePolicyAttachmentArgs{
		Role:      role.Name,
		PolicyArn: pulumi.String("arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"),
	}, opts)
	if err != nil {
		return nil, err
	}
	if f.hasPolicy {
		_, err = iam.NewRolePolicy(ctx, fmt.Sprintf("%s-%s-access", prefix, f.name), &iam.RolePolicyArgs{
			Role:   role.ID(),
			Policy: f.policy,
		}, opts)
		if err != nil {
			return nil, err
		}
	}

	return lambda.NewFunction(ctx, fmt.Sprintf("%s-%s", prefix, f.name), &lambda.FunctionArgs{
		Role:          role.Arn,
		Runtime:       pulumi.String("provided.al2"),
		Handler:       pulumi.String("bootstrap"),
		Architectures: pulumi.ToStringArray([]string{"arm64"}),
		Code:          pulumi.NewFileArchive(fmt.Sprintf("../dist/%s.zip", f.name)),
		Timeout:       pulumi.Int(30),
		Environment: &lambda.FunctionEnvironmentArgs{
			Variables: env,
		},
	}, opts)
}

func addRoute(ctx *pulumi.Context, prefix string, api *apigatewayv2.Api, f function, fn *lambda.Function, opts pulumi.ResourceOption) error {
	integration, err := apigatewayv2.NewIntegration(ctx, fmt.Sprintf("%s-%s-integration", prefix, f.name), &apigatewayv2.IntegrationArgs{
		ApiId:                api.ID(),
		IntegrationType:      pulumi.String("AWS_PROXY"),
		IntegrationUri:       fn.InvokeArn,
		IntegrationMethod:    pulumi.String("POST"),
		PayloadFormatVersion: pulumi.String("1.0"),
	}, opts)
	if err != nil {
		return err
	}
	_, err = apigatewayv2.NewRoute(ctx, fmt.Sprintf("%s-%s-route", prefix, f.name), &apigatewayv2.RouteArgs{
		ApiId:    api.ID(),
		RouteKey: pulumi.String(f.route),
		Target:   pulumi.Sprintf("integrations/%s", integration.ID()),
	}, opts)
	if err != nil {
		return err
	}

	// Allow the HTTP API to invoke the function
	_, err = lambda.NewPermission(ctx, fmt.Sprintf("%s-%s-perm", prefix, f.name), &lambda.PermissionArgs{
		Action:    pulumi.String("lambda:InvokeFunction"),
		Function:  fn.Name,
		Principal: pulumi.String("apigateway.amazonaws.com"),
		SourceArn: pulumi.Sprintf("%s/*/*", api.ExecutionArn),
	}, opts)
	return err
}
