package identity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// cognitoAPI is the slice of the Cognito client the provider uses.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cognitoidentityprovider.RespondToAuthChallengeInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error)
	AdminCreateUser(ctx context.Context, params *cognitoidentityprovider.AdminCreateUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error)
	AdminSetUserPassword(ctx context.Context, params *cognitoidentityprovider.AdminSetUserPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminSetUserPasswordOutput, error)
	ChangePassword(ctx context.Context, params *cognitoidentityprovider.ChangePasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ChangePasswordOutput, error)
}

// CognitoProvider implements Provider against an AWS Cognito user pool.
type CognitoProvider struct {
	client     cognitoAPI
	userPoolID string
	clientID   string
}

// NewCognitoProvider loads the default AWS config for the given region and
// returns a provider bound to the user pool.
func NewCognitoProvider(ctx context.Context, region, userPoolID, clientID string) (*CognitoProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &CognitoProvider{
		client:     cognitoidentityprovider.NewFromConfig(cfg),
		userPoolID: userPoolID,
		clientID:   clientID,
	}, nil
}

func (p *CognitoProvider) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	out, err := p.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("initiate auth: %w", err)
	}

	if out.ChallengeName == types.ChallengeNameTypeNewPasswordRequired {
		return nil, &ChallengeError{
			Name:    string(out.ChallengeName),
			Session: aws.ToString(out.Session),
		}
	}
	return tokensFromResult(out.AuthenticationResult)
}

func (p *CognitoProvider) CompleteNewPassword(ctx context.Context, email, newPassword, session string) (*Tokens, error) {
	out, err := p.client.RespondToAuthChallenge(ctx, &cognitoidentityprovider.RespondToAuthChallengeInput{
		ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
		ClientId:      aws.String(p.clientID),
		Session:       aws.String(session),
		ChallengeResponses: map[string]string{
			"USERNAME":     email,
			"NEW_PASSWORD": newPassword,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("respond to challenge: %w", err)
	}
	return tokensFromResult(out.AuthenticationResult)
}

func (p *CognitoProvider) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	out, err := p.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": refreshToken,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("refresh auth: %w", err)
	}
	return tokensFromResult(out.AuthenticationResult)
}

// CreateUser registers the user with a permanent password and suppressed
// invitation email. The provider-assigned sub attribute is returned.
func (p *CognitoProvider) CreateUser(ctx context.Context, user NewUser) (string, error) {
	out, err := p.client.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:        aws.String(p.userPoolID),
		Username:          aws.String(user.Email),
		MessageAction:     types.MessageActionTypeSuppress,
		TemporaryPassword: aws.String(user.Password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(user.Email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
			{Name: aws.String("given_name"), Value: aws.String(user.FirstName)},
			{Name: aws.String("family_name"), Value: aws.String(user.LastName)},
			{Name: aws.String("custom:role"), Value: aws.String(user.Role)},
			{Name: aws.String("custom:department"), Value: aws.String(user.Department)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	if _, err := p.client.AdminSetUserPassword(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(user.Email),
		Password:   aws.String(user.Password),
		Permanent:  true,
	}); err != nil {
		return "", fmt.Errorf("set user password: %w", err)
	}

	if out.User != nil {
		for _, attr := range out.User.Attributes {
			if aws.ToString(attr.Name) == "sub" {
				return aws.ToString(attr.Value), nil
			}
		}
	}
	return "", fmt.Errorf("create user: provider response missing sub attribute")
}

func (p *CognitoProvider) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	_, err := p.client.ChangePassword(ctx, &cognitoidentityprovider.ChangePasswordInput{
		AccessToken:      aws.String(accessToken),
		PreviousPassword: aws.String(oldPassword),
		ProposedPassword: aws.String(newPassword),
	})
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

func tokensFromResult(result *types.AuthenticationResultType) (*Tokens, error) {
	if result == nil {
		return nil, fmt.Errorf("authentication result missing from provider response")
	}
	return &Tokens{
		AccessToken:  aws.ToString(result.AccessToken),
		IDToken:      aws.ToString(result.IdToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		ExpiresIn:    result.ExpiresIn,
	}, nil
}
