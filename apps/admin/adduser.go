package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// addUser creates a user, or activates an existing one with the given role and password.
func (cli *commandLine) addUser(uname, email, name, role, pwd string) (user.User, error) {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	if name = core.CleanString(name); name == "" {
		name = uname
	}

	usr, err := cli.users.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, errors.Wrap(err, "cli.users.GetByUsernameOrEmail()")
		}
		nu := user.NewUser{
			Name:            name,
			Username:        uname,
			Email:           email,
			Role:            role,
			Password:        pwd,
			PasswordConfirm: pwd,
		}
		if err := nu.Validate(cli.validate, cli.users); err != nil {
			return user.User{}, err
		}
		return cli.users.Create(ctx, nu)
	}

	uu := user.UpdateUser{Email: email, Role: role, Status: user.StatusActive}
	if err := uu.Validate(usr, cli.validate, cli.users); err != nil {
		return user.User{}, err
	}
	if usr, err = cli.users.Update(ctx, usr, uu); err != nil {
		return user.User{}, errors.Wrap(err, "cli.users.Update()")
	}
	if err := cli.users.ResetPassword(ctx, usr, pwd); err != nil {
		return user.User{}, err
	}
	return usr, nil
}
