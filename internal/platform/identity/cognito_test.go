package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type fakeCognito struct {
	initiateOut  *cognitoidentityprovider.InitiateAuthOutput
	initiateErr  error
	initiateIn   *cognitoidentityprovider.InitiateAuthInput
	respondOut   *cognitoidentityprovider.RespondToAuthChallengeOutput
	respondIn    *cognitoidentityprovider.RespondToAuthChallengeInput
	createOut    *cognitoidentityprovider.AdminCreateUserOutput
	createIn     *cognitoidentityprovider.AdminCreateUserInput
	setPassIn    *cognitoidentityprovider.AdminSetUserPasswordInput
	changePassIn *cognitoidentityprovider.ChangePasswordInput
}

func (f *fakeCognito) InitiateAuth(_ context.Context, in *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	f.initiateIn = in
	return f.initiateOut, f.initiateErr
}

func (f *fakeCognito) RespondToAuthChallenge(_ context.Context, in *cognitoidentityprovider.RespondToAuthChallengeInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error) {
	f.respondIn = in
	return f.respondOut, nil
}

func (f *fakeCognito) AdminCreateUser(_ context.Context, in *cognitoidentityprovider.AdminCreateUserInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error) {
	f.createIn = in
	return f.createOut, nil
}

func (f *fakeCognito) AdminSetUserPassword(_ context.Context, in *cognitoidentityprovider.AdminSetUserPasswordInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminSetUserPasswordOutput, error) {
	f.setPassIn = in
	return &cognitoidentityprovider.AdminSetUserPasswordOutput{}, nil
}

func (f *fakeCognito) ChangePassword(_ context.Context, in *cognitoidentityprovider.ChangePasswordInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ChangePasswordOutput, error) {
	f.changePassIn = in
	return &cognitoidentityprovider.ChangePasswordOutput{}, nil
}

func newProvider(fake *fakeCognito) *CognitoProvider {
	return &CognitoProvider{client: fake, userPoolID: "pool-1", clientID: "client-1"}
}

func authResult() *types.AuthenticationResultType {
	return &types.AuthenticationResultType{
		AccessToken:  aws.String("access"),
		IdToken:      aws.String("id"),
		RefreshToken: aws.String("refresh"),
		ExpiresIn:    3600,
	}
}

func TestSignIn_Success(t *testing.T) {
	fake := &fakeCognito{
		initiateOut: &cognitoidentityprovider.InitiateAuthOutput{AuthenticationResult: authResult()},
	}
	p := newProvider(fake)

	tokens, err := p.SignIn(context.Background(), "doc@example.org", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.AccessToken != "access" || tokens.RefreshToken != "refresh" || tokens.ExpiresIn != 3600 {
		t.Errorf("tokens not mapped: %+v", tokens)
	}
	if fake.initiateIn.AuthFlow != types.AuthFlowTypeUserPasswordAuth {
		t.Errorf("expected USER_PASSWORD_AUTH, got %s", fake.initiateIn.AuthFlow)
	}
	if fake.initiateIn.AuthParameters["USERNAME"] != "doc@example.org" {
		t.Error("username parameter not passed through")
	}
}

func TestSignIn_NewPasswordChallenge(t *testing.T) {
	fake := &fakeCognito{
		initiateOut: &cognitoidentityprovider.InitiateAuthOutput{
			ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
			Session:       aws.String("session-token"),
		},
	}
	p := newProvider(fake)

	_, err := p.SignIn(context.Background(), "doc@example.org", "pw")
	var challenge *ChallengeError
	if !errors.As(err, &challenge) {
		t.Fatalf("expected ChallengeError, got %v", err)
	}
	if challenge.Name != "NEW_PASSWORD_REQUIRED" || challenge.Session != "session-token" {
		t.Errorf("challenge not mapped: %+v", challenge)
	}
}

func TestSignIn_ProviderError(t *testing.T) {
	fake := &fakeCognito{initiateErr: errors.New("NotAuthorizedException")}
	p := newProvider(fake)
	if _, err := p.SignIn(context.Background(), "doc@example.org", "bad"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCompleteNewPassword(t *testing.T) {
	fake := &fakeCognito{
		respondOut: &cognitoidentityprovider.RespondToAuthChallengeOutput{AuthenticationResult: authResult()},
	}
	p := newProvider(fake)

	tokens, err := p.CompleteNewPassword(context.Background(), "doc@example.org", "newpw", "session-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.AccessToken != "access" {
		t.Errorf("tokens not mapped: %+v", tokens)
	}
	if fake.respondIn.ChallengeResponses["NEW_PASSWORD"] != "newpw" {
		t.Error("new password not passed through")
	}
	if aws.ToString(fake.respondIn.Session) != "session-token" {
		t.Error("session not passed through")
	}
}

func TestRefresh(t *testing.T) {
	fake := &fakeCognito{
		initiateOut: &cognitoidentityprovider.InitiateAuthOutput{AuthenticationResult: authResult()},
	}
	p := newProvider(fake)

	if _, err := p.Refresh(context.Background(), "refresh-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.initiateIn.AuthFlow != types.AuthFlowTypeRefreshTokenAuth {
		t.Errorf("expected REFRESH_TOKEN_AUTH, got %s", fake.initiateIn.AuthFlow)
	}
	if fake.initiateIn.AuthParameters["REFRESH_TOKEN"] != "refresh-token" {
		t.Error("refresh token not passed through")
	}
}

func TestCreateUser(t *testing.T) {
	fake := &fakeCognito{
		createOut: &cognitoidentityprovider.AdminCreateUserOutput{
			User: &types.UserType{
				Attributes: []types.AttributeType{
					{Name: aws.String("sub"), Value: aws.String("uuid-sub-1")},
				},
			},
		},
	}
	p := newProvider(fake)

	sub, err := p.CreateUser(context.Background(), NewUser{
		Email:      "nurse@example.org",
		Password:   "pw",
		FirstName:  "Rita",
		LastName:   "Oke",
		Role:       "nurse",
		Department: "icu",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != "uuid-sub-1" {
		t.Errorf("expected provider sub, got %q", sub)
	}

	attrs := map[string]string{}
	for _, a := range fake.createIn.UserAttributes {
		attrs[aws.ToString(a.Name)] = aws.ToString(a.Value)
	}
	if attrs["custom:role"] != "nurse" || attrs["custom:department"] != "icu" {
		t.Errorf("custom attributes not stamped: %v", attrs)
	}
	if fake.createIn.MessageAction != types.MessageActionTypeSuppress {
		t.Error("invitation email should be suppressed")
	}
	if fake.setPassIn == nil || !fake.setPassIn.Permanent {
		t.Error("password should be made permanent")
	}
}

func TestChangePassword(t *testing.T) {
	fake := &fakeCognito{}
	p := newProvider(fake)

	if err := p.ChangePassword(context.Background(), "access", "old", "new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToString(fake.changePassIn.PreviousPassword) != "old" ||
		aws.ToString(fake.changePassIn.ProposedPassword) != "new" {
		t.Errorf("password change inputs not mapped: %+v", fake.changePassIn)
	}
}
